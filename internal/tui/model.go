// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artinav/artinav/internal/discovery"
	"github.com/artinav/artinav/internal/reload"
	"github.com/artinav/artinav/pkg/catalog"
	"github.com/artinav/artinav/pkg/navigator"
)

type (
	// Loader produces a fresh catalog. It runs outside the update loop.
	Loader func(ctx context.Context) (*discovery.Catalog, error)

	// Options configures a Model.
	Options struct {
		// Load is required.
		Load Loader
		// Title is shown in the header; defaults to "artinav".
		Title string
		// Styles defaults to NewStyles(nil, "auto").
		Styles *Styles
		// KeyMap defaults to DefaultKeyMap().
		KeyMap *KeyMap
		// Changes triggers a reload for every value received, e.g. from a
		// reload notification subscription.
		Changes <-chan struct{}
	}

	// Model is the bubbletea model of the catalog browser.
	Model struct {
		ctx      context.Context
		load     Loader
		title    string
		styles   Styles
		keys     KeyMap
		changes  <-chan struct{}
		nav      *navigator.Navigator
		catalogs reload.Tracker[*discovery.Catalog]

		search  textinput.Model
		spinner spinner.Model
		help    help.Model

		cursor    int
		width     int
		height    int
		loading   bool
		searching bool
		loadErr   error
		status    string
		selection *navigator.Selection
	}

	catalogLoadedMsg struct {
		gen reload.Generation
		cat *discovery.Catalog
		err error
	}

	changeMsg struct{}
)

// New creates a browser positioned at the root of an empty catalog. The
// first load starts in Init.
func New(ctx context.Context, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	title := opts.Title
	if title == "" {
		title = "artinav"
	}
	styles := opts.Styles
	if styles == nil {
		s := NewStyles(nil, "")
		styles = &s
	}
	keys := opts.KeyMap
	if keys == nil {
		k := DefaultKeyMap()
		keys = &k
	}

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "filter this folder"
	input.PromptStyle = styles.Search

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Title

	return &Model{
		ctx:     ctx,
		load:    opts.Load,
		title:   title,
		styles:  *styles,
		keys:    *keys,
		changes: opts.Changes,
		nav:     navigator.New(nil),
		search:  input,
		spinner: spin,
		help:    help.New(),
	}
}

// Init starts the initial load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startLoad(), m.waitForChange())
}

// Selection returns the file chosen by the user, if any.
func (m *Model) Selection() (navigator.Selection, bool) {
	if m.selection == nil {
		return navigator.Selection{}, false
	}
	return *m.selection, true
}

// Navigator exposes the underlying view model.
func (m *Model) Navigator() *navigator.Navigator {
	return m.nav
}

// LoadError returns the error of the latest completed load.
func (m *Model) LoadError() error {
	return m.loadErr
}

func (m *Model) startLoad() tea.Cmd {
	if m.load == nil {
		return nil
	}
	gen := m.catalogs.Begin()
	m.loading = true
	load, ctx := m.load, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		cat, err := load(ctx)
		return catalogLoadedMsg{gen: gen, cat: cat, err: err}
	})
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch, ctx := m.changes, m.ctx
	return func() tea.Msg {
		select {
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return changeMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.search.Width = max(msg.Width-4, 10)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case catalogLoadedMsg:
		m.applyLoad(msg)
		return m, nil

	case changeMsg:
		return m, tea.Batch(m.startLoad(), m.waitForChange())

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// applyLoad installs a finished load unless a newer one was started since.
func (m *Model) applyLoad(msg catalogLoadedMsg) {
	if msg.err != nil {
		if !m.catalogs.IsCurrent(msg.gen) {
			return
		}
		m.loading = false
		m.loadErr = msg.err
		return
	}
	if !m.catalogs.Commit(msg.gen, msg.cat) {
		return
	}
	m.loading = false
	m.loadErr = nil
	m.status = ""
	if err := m.nav.Reload(msg.cat.Root); err != nil {
		var inc *navigator.NavigationInconsistencyError
		if errors.As(err, &inc) {
			m.status = fmt.Sprintf("%q is gone; back at the root", inc.Missing)
		}
		m.cursor = 0
	}
	m.clampCursor()
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.nav.SetSearchQuery("")
		m.cursor = 0
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.nav.SearchQuery() {
		m.nav.SetSearchQuery(m.search.Value())
		m.cursor = 0
	}
	return m, cmd
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	entries := m.nav.VisibleEntries()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(entries)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		if m.cursor >= len(entries) {
			return m, nil
		}
		return m.open(entries[m.cursor])

	case key.Matches(msg, m.keys.Back):
		if err := m.nav.GoBack(); err == nil {
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.Home):
		m.nav.GoHome()
		m.cursor = 0

	case key.Matches(msg, m.keys.Breadcrumb):
		n, _ := strconv.Atoi(msg.String())
		if err := m.nav.GoToBreadcrumb(n - 1); err == nil {
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.nav.SearchQuery())
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Clear):
		if m.nav.SearchQuery() != "" {
			m.nav.SetSearchQuery("")
			m.search.SetValue("")
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.Reload):
		return m, m.startLoad()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// open enters a folder or, for a file, records the selection and quits.
func (m *Model) open(node *catalog.TreeNode) (tea.Model, tea.Cmd) {
	if node.IsFolder() {
		if err := m.nav.EnterFolder(node); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.cursor = 0
		return m, nil
	}
	sel, err := m.nav.Select(node)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.selection = &sel
	return m, tea.Quit
}

func (m *Model) clampCursor() {
	n := len(m.nav.VisibleEntries())
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.selection != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(m.viewBreadcrumbs())
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.search.View() + "\n")
	} else if q := m.nav.SearchQuery(); q != "" {
		b.WriteString(m.styles.Search.Render("/"+q) + "\n")
	}
	b.WriteString("\n")

	if m.loadErr != nil {
		b.WriteString(m.viewError() + "\n\n")
	}
	b.WriteString(m.viewEntries())

	if m.status != "" {
		b.WriteString("\n" + m.styles.Status.Render(m.status))
	}
	b.WriteString("\n\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) viewBreadcrumbs() string {
	crumbs := m.nav.Breadcrumbs()
	parts := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		label := m.styles.Crumb.Render(c.Name)
		if c.Index < 9 {
			label = m.styles.CrumbIndex.Render(strconv.Itoa(c.Index+1)+" ") + label
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, m.styles.CrumbSep.String())
}

func (m *Model) viewEntries() string {
	entries := m.nav.VisibleEntries()
	if len(entries) == 0 {
		switch {
		case m.loading && m.nav.Root().Len() == 0:
			return m.styles.Empty.Render("loading catalog…")
		case m.nav.SearchQuery() != "":
			return m.styles.Empty.Render("no matches")
		default:
			return m.styles.Empty.Render("no artifacts here")
		}
	}

	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		name := m.styles.File.Render(e.Name)
		if e.IsFolder() {
			name = m.styles.Folder.Render(e.Name + "/")
		}
		prefix := "  "
		if i == m.cursor {
			prefix = m.styles.Cursor.String()
			name = m.styles.Selected.Render(name)
		}
		lines = append(lines, prefix+name)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) viewError() string {
	body := m.styles.ErrorTitle.Render("Catalog failed to load") + "\n" + m.loadErr.Error()
	if _, _, ok := m.catalogs.Current(); ok {
		body += "\n" + m.styles.Empty.Render("showing the last good catalog")
	}
	box := m.styles.ErrorBox
	if m.width > 4 {
		box = box.Width(m.width - 2)
	}
	return box.Render(body)
}
