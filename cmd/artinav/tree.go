// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/artinav/artinav/pkg/catalog"
)

// newTreeCommand creates the `artinav tree` command.
func newTreeCommand(app *App) *cobra.Command {
	var (
		order  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the whole catalog as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context())
			if err != nil {
				return err
			}
			if order != "" {
				s.cfg.Catalog.Order = order
			}

			cat, err := app.loadCatalog(cmd.Context(), s)
			if err != nil {
				return catalogFailure(err)
			}

			if asJSON {
				enc := json.NewEncoder(app.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cat.Root)
			}

			stats := cat.Root.Stats()
			_, _ = fmt.Fprintln(app.stdout, renderTree(cat.Root))
			_, err = fmt.Fprintln(app.stdout, SubtitleStyle.Render(
				fmt.Sprintf("%d folders, %d artifacts", stats.Folders, stats.Files)))
			return err
		},
	}

	cmd.Flags().StringVar(&order, "order", "", `child order, "insertion" or "name" (default from config)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}

// renderTree draws root with lipgloss/tree. Folders carry a trailing slash.
func renderTree(root *catalog.TreeNode) string {
	t := tree.Root(TitleStyle.Render(catalog.RootName)).
		EnumeratorStyle(enumeratorStyle)
	addTreeChildren(t, root)
	return t.String()
}

func addTreeChildren(t *tree.Tree, node *catalog.TreeNode) {
	for _, child := range node.Children() {
		if !child.IsFolder() {
			t.Child(fileStyle.Render(child.Name))
			continue
		}
		sub := tree.Root(folderStyle.Render(child.Name + catalog.Separator))
		addTreeChildren(sub, child)
		t.Child(sub)
	}
}
