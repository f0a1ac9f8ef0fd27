// SPDX-License-Identifier: MPL-2.0

// Package tui is the interactive terminal browser for the artifact catalog.
//
// The Model wraps a navigator.Navigator: folders are entered and left with
// the keyboard, the search box filters the current folder, and choosing a
// file ends the program with that file as the selection. Catalog loads run
// as commands tagged with a generation so a slow, older load never replaces
// a newer one.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/artinav/artinav/pkg/navigator"
)

// Run shows the browser until the user quits or picks a file. It reports the
// selection and whether one was made.
func Run(ctx context.Context, opts Options, progOpts ...tea.ProgramOption) (navigator.Selection, bool, error) {
	m := New(ctx, opts)
	progOpts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, progOpts...)

	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		return navigator.Selection{}, false, fmt.Errorf("run browser: %w", err)
	}
	fm, ok := final.(*Model)
	if !ok {
		return navigator.Selection{}, false, nil
	}
	sel, ok := fm.Selection()
	return sel, ok, nil
}
