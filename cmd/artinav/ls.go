// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/pkg/catalog"
	"github.com/artinav/artinav/pkg/navigator"
)

type (
	// listing is the `ls --json` document.
	listing struct {
		Path        []string               `json:"path"`
		Query       string                 `json:"query"`
		Breadcrumbs []navigator.Breadcrumb `json:"breadcrumbs"`
		Entries     []listingEntry         `json:"entries"`
	}

	listingEntry struct {
		Name string       `json:"name"`
		Path string       `json:"path"`
		Kind catalog.Kind `json:"kind"`
	}
)

// newLsCommand creates the `artinav ls` command.
func newLsCommand(app *App) *cobra.Command {
	var (
		query  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ls [folder]",
		Short: "List one catalog folder",
		Long: `List the entries of one catalog folder in catalog order.

The folder is a slash-separated path such as "finance/reports"; no
argument lists the root. --query keeps only entries whose name contains
the text, ignoring case.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context())
			if err != nil {
				return err
			}
			cat, err := app.loadCatalog(cmd.Context(), s)
			if err != nil {
				return catalogFailure(err)
			}

			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			nav, err := navigateTo(cat.Root, folder)
			if err != nil {
				app.renderIssue(err, s.cfg.UI.ColorScheme)
				return err
			}
			nav.SetSearchQuery(query)

			if asJSON {
				return writeListingJSON(app.stdout, nav)
			}
			return writeListing(app.stdout, nav)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "only show entries whose name contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}

// navigateTo walks from the root into folder one segment at a time, the same
// way a user would.
func navigateTo(root *catalog.TreeNode, folder string) (*navigator.Navigator, error) {
	nav := navigator.New(root)
	for _, seg := range catalog.SplitPath(folder) {
		child, ok := nav.CurrentNode().Child(seg)
		if !ok {
			return nil, folderNotFound(folder, fmt.Errorf("folder %q not found", folder))
		}
		if err := nav.EnterFolder(child); err != nil {
			if errors.Is(err, navigator.ErrNotAFolder) {
				return nil, folderNotFound(folder, fmt.Errorf("%q is an artifact, not a folder", child.Path))
			}
			return nil, err
		}
	}
	return nav, nil
}

func folderNotFound(folder string, cause error) error {
	return issue.NewErrorContext().
		WithOperation("list folder").
		WithResource(folder).
		WithSuggestion("Run 'artinav tree' to see every folder").
		WithIssue(issue.FolderNotFoundId).
		Wrap(cause).
		BuildError()
}

func writeListing(w io.Writer, nav *navigator.Navigator) error {
	crumbs := nav.Breadcrumbs()
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = c.Name
	}
	header := strings.Join(names, " / ")
	if q := nav.SearchQuery(); q != "" {
		header += fmt.Sprintf(" (matching %q)", q)
	}
	_, _ = fmt.Fprintln(w, SubtitleStyle.Render(header))

	entries := nav.VisibleEntries()
	if len(entries) == 0 {
		msg := "no artifacts here"
		if nav.SearchQuery() != "" {
			msg = "no matches"
		}
		_, err := fmt.Fprintln(w, VerboseStyle.Render(msg))
		return err
	}
	for _, e := range entries {
		line := fileStyle.Render(e.Name)
		if e.IsFolder() {
			line = folderStyle.Render(e.Name + catalog.Separator)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeListingJSON(w io.Writer, nav *navigator.Navigator) error {
	out := listing{
		Path:        nav.CurrentPath(),
		Query:       nav.SearchQuery(),
		Breadcrumbs: nav.Breadcrumbs(),
		Entries:     []listingEntry{},
	}
	if out.Path == nil {
		out.Path = []string{}
	}
	for _, e := range nav.VisibleEntries() {
		out.Entries = append(out.Entries, listingEntry{Name: e.Name, Path: e.Path, Kind: e.Kind})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
