package extract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gnana997/propscan/pkg/parser"
	"github.com/gnana997/propscan/pkg/parser/queries"
	"github.com/gnana997/propscan/pkg/util"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))

// newTestExtractor returns an Extractor with a silent logger and a fixed
// clock and run id.
func newTestExtractor(t *testing.T, opts Options) *Extractor {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.NewRunID == nil {
		opts.NewRunID = func() string { return "run-1" }
	}
	ext := NewExtractor(opts, util.DiscardLogger())
	t.Cleanup(func() { ext.Close() })
	return ext
}

// parseDecls parses src as TypeScript and returns its top-level declarations.
// The tree stays open until the test ends.
func parseDecls(t *testing.T, src string) []Declaration {
	t.Helper()
	pm := parser.NewParserManager(util.DiscardLogger())
	qm := queries.NewQueryManager(pm, util.DiscardLogger())
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})

	tree, err := pm.Parse([]byte(src), parser.DialectTS)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	decls, err := TopLevelDeclarations(tree.RootNode(), []byte(src), parser.DialectTS, qm)
	require.NoError(t, err)
	return decls
}

// membersOf extracts the members of the declarations named name.
func membersOf(t *testing.T, src, name string, opts MemberOptions) ([]MemberRecord, []Diagnostic) {
	t.Helper()
	decls := parseDecls(t, src)
	found, nodes := Locate(decls, "", ExactNames(name))
	require.Equal(t, name, found, "declaration %s not found", name)
	return ExtractMembers(nodes, []byte(src), opts)
}

func byName(members []MemberRecord) map[string]MemberRecord {
	m := make(map[string]MemberRecord, len(members))
	for _, r := range members {
		m[r.Name] = r
	}
	return m
}

func memberNames(members []MemberRecord) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}

func eventNames(events []EventRecord) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

func libRoot(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", "lib"))
	require.NoError(t, err)
	return abs
}

func strPtr(s string) *string { return &s }
