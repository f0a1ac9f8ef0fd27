// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	CatalogLoadFailedId Id = iota + 1
	ArtifactsDirNotFoundId
	PathCollisionId
	InvalidArtifactId
	ManifestFetchFailedId
	ConfigLoadFailedId
	ServerStartFailedId
	FolderNotFoundId
)

type (
	// Id identifies a class of failure that has a guidance page.
	Id int

	// MarkdownMsg is Markdown guidance text.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a guidance page for one failure class.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// render is swapped in tests.
var render = glamour.Render

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw guidance text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guidance with the given glamour style ("dark", "light",
// "notty", "auto" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	catalogLoadFailedIssue = &Issue{
		id: CatalogLoadFailedId,
		mdMsg: `
# The artifact catalog could not be loaded

No partial catalog is shown when discovery fails.

## Things you can try
- Check which source is configured:
~~~
$ artinav config show
~~~
- Point at a directory explicitly:
~~~
$ artinav --dir src/artifacts tree
~~~
- Re-run with ` + "`--verbose`" + ` to see every discovery diagnostic.`,
	}

	artifactsDirNotFoundIssue = &Issue{
		id: ArtifactsDirNotFoundId,
		mdMsg: `
# Artifacts directory not found

artinav looks for artifact pages under ` + "`artifacts.dir`" + ` (default ` + "`src/artifacts`" + `).

## Things you can try
- Run from the project root, or pass ` + "`--dir <path>`" + `
- Set the directory in your config:
~~~cue
artifacts: dir: "web/src/pages"
~~~`,
	}

	pathCollisionIssue = &Issue{
		id: PathCollisionId,
		mdMsg: `
# Two artifacts claim the same catalog path

A page and a folder (or two pages) resolve to the same path, for example
` + "`reports.tsx`" + ` next to a ` + "`reports/`" + ` directory.

## Things you can try
- Rename the page or the folder so the paths differ
- Exclude one of them:
~~~cue
artifacts: exclude: ["reports.tsx"]
~~~`,
	}

	invalidArtifactIssue = &Issue{
		id: InvalidArtifactId,
		mdMsg: `
# Malformed artifact identifier

Identifiers must be relative, slash-separated and free of empty, ` + "`.`" + ` or
` + "`..`" + ` segments. Manifests served by another tool sometimes include a
leading ` + "`./`" + ` or ` + "`/`" + `.

## Things you can try
- Fix the manifest entry reported above
- Use a local directory source instead with ` + "`--dir`",
	}

	manifestFetchFailedIssue = &Issue{
		id: ManifestFetchFailedId,
		mdMsg: `
# The artifact manifest could not be fetched

The remote endpoint must answer ` + "`GET`" + ` with a JSON array of
` + "`{\"name\", \"path\"}`" + ` objects or plain strings.

## Things you can try
- Check that the server is running: ` + "`curl <url>`" + `
- Serve a manifest with artinav itself:
~~~
$ artinav serve
$ artinav --url http://127.0.0.1:5173/__artifacts ls
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The config file must be valid CUE matching the artinav schema.

## Things you can try
- Print the effective configuration: ` + "`artinav config show`" + `
- Write a fresh default file: ` + "`artinav config init`" + `
- Locate the file in use: ` + "`artinav config path`",
	}

	serverStartFailedIssue = &Issue{
		id: ServerStartFailedId,
		mdMsg: `
# The server failed to start

## Things you can try
- Check that the address is free, or choose another one:
~~~
$ artinav serve --address 127.0.0.1:0
~~~
- For the SSH browser, make sure the host key directory is writable`,
	}

	folderNotFoundIssue = &Issue{
		id: FolderNotFoundId,
		mdMsg: `
# Folder not found in the catalog

## Things you can try
- List the root to see the available folders: ` + "`artinav ls`" + `
- Print the whole tree: ` + "`artinav tree`",
	}

	issues = map[Id]*Issue{
		catalogLoadFailedIssue.Id():    catalogLoadFailedIssue,
		artifactsDirNotFoundIssue.Id(): artifactsDirNotFoundIssue,
		pathCollisionIssue.Id():        pathCollisionIssue,
		invalidArtifactIssue.Id():      invalidArtifactIssue,
		manifestFetchFailedIssue.Id():  manifestFetchFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		serverStartFailedIssue.Id():    serverStartFailedIssue,
		folderNotFoundIssue.Id():       folderNotFoundIssue,
	}
)

// Values returns all issues ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
