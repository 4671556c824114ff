// Package queries compiles, caches and runs the tree-sitter queries used to
// locate declarations in parsed sources.
package queries

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propscan/pkg/parser"
	"github.com/gnana997/propscan/pkg/parser/queries/declarations"
)

// ErrNoQuery is returned when a query type has no pattern for a dialect, for
// example declaration queries against plain JavaScript.
var ErrNoQuery = errors.New("no query for dialect")

// QueryType identifies a family of patterns.
type QueryType int

const (
	// QueryTypeDeclarations finds interface and type alias declarations.
	QueryTypeDeclarations QueryType = iota
)

func (qt QueryType) String() string {
	switch qt {
	case QueryTypeDeclarations:
		return "declarations"
	default:
		return "unknown"
	}
}

type queryKey struct {
	dialect parser.Dialect
	qtype   QueryType
}

// QueryManager compiles queries on first use and caches them per dialect.
// A query is compiled against the exact grammar of its dialect, because node
// symbol ids differ between the TypeScript and TSX grammars.
//
//	qm := queries.NewQueryManager(pm, logger)
//	defer qm.Close()
//
//	q, err := qm.GetQuery(parser.DialectTS, queries.QueryTypeDeclarations)
//	matches, err := qm.ExecuteQuery(tree.RootNode(), q, src)
type QueryManager struct {
	pm     *parser.ParserManager
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[queryKey]*ts.Query
}

// NewQueryManager creates a query manager that compiles against pm's grammars.
func NewQueryManager(pm *parser.ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryManager{
		pm:     pm,
		logger: logger,
		cache:  make(map[queryKey]*ts.Query),
	}
}

// GetQuery returns the compiled query for d and qtype.
func (qm *QueryManager) GetQuery(d parser.Dialect, qtype QueryType) (*ts.Query, error) {
	key := queryKey{dialect: d, qtype: qtype}

	qm.mu.RLock()
	q, ok := qm.cache[key]
	qm.mu.RUnlock()
	if ok {
		return q, nil
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()
	if q, ok = qm.cache[key]; ok {
		return q, nil
	}

	src, err := querySource(d, qtype)
	if err != nil {
		return nil, err
	}
	grammar, err := qm.pm.Grammar(d)
	if err != nil {
		return nil, fmt.Errorf("grammar for %s: %w", d, err)
	}
	q, qerr := ts.NewQuery(ts.NewLanguage(grammar), src)
	if qerr != nil {
		return nil, fmt.Errorf("compile %s query for %s: %s", qtype, d, qerr.Message)
	}
	qm.cache[key] = q
	qm.logger.Debug("query compiled", "dialect", d.String(), "type", qtype.String())
	return q, nil
}

func querySource(d parser.Dialect, qtype QueryType) (string, error) {
	switch qtype {
	case QueryTypeDeclarations:
		if d.Lang == parser.LanguageTypeScript {
			return declarations.TSQueries, nil
		}
		return "", fmt.Errorf("%w: %s %s", ErrNoQuery, qtype, d)
	default:
		return "", fmt.Errorf("unknown query type %d", int(qtype))
	}
}

// ExecuteQuery runs query over node and returns every match with its
// captures resolved to names, text and locations.
func (qm *QueryManager) ExecuteQuery(node *ts.Node, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if node == nil {
		return nil, errors.New("query root is nil")
	}
	if query == nil {
		return nil, errors.New("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	iter := cursor.Matches(query, node, source)

	var matches []QueryMatch
	for m := iter.Next(); m != nil; m = iter.Next() {
		captures := make([]QueryCapture, 0, len(m.Captures))
		for _, c := range m.Captures {
			var name string
			if int(c.Index) < len(names) {
				name = names[c.Index]
			}
			category, field := splitCaptureName(name)
			n := c.Node
			captures = append(captures, QueryCapture{
				Name:     name,
				Category: category,
				Field:    field,
				Node:     &n,
				Text:     n.Utf8Text(source),
				Location: nodeLocation(&n),
			})
		}
		matches = append(matches, QueryMatch{
			PatternIndex: uint32(m.PatternIndex),
			Captures:     captures,
		})
	}
	return matches, nil
}

// Close frees all compiled queries.
func (qm *QueryManager) Close() error {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	for key, q := range qm.cache {
		q.Close()
		delete(qm.cache, key)
	}
	return nil
}

// QueryMatch is one pattern match.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// Capture returns the first capture with the given full name, or nil.
func (m QueryMatch) Capture(name string) *QueryCapture {
	for i := range m.Captures {
		if m.Captures[i].Name == name {
			return &m.Captures[i]
		}
	}
	return nil
}

// Category returns the category shared by the match's captures ("interface",
// "alias"), taken from the first capture.
func (m QueryMatch) Category() string {
	if len(m.Captures) == 0 {
		return ""
	}
	return m.Captures[0].Category
}

// QueryCapture is a captured node. Name "interface.name" splits into
// Category "interface" and Field "name".
type QueryCapture struct {
	Name     string
	Category string
	Field    string
	Node     *ts.Node
	Text     string
	Location Location
}

// Location is a 1-based line/column span plus 0-based byte offsets.
type Location struct {
	StartLine   uint32
	StartColumn uint32
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32
	EndByte     uint32
}

func splitCaptureName(name string) (category, field string) {
	category, field, _ = strings.Cut(name, ".")
	return category, field
}

func nodeLocation(n *ts.Node) Location {
	start, end := n.StartPosition(), n.EndPosition()
	return Location{
		StartLine:   uint32(start.Row + 1),
		StartColumn: uint32(start.Column + 1),
		EndLine:     uint32(end.Row + 1),
		EndColumn:   uint32(end.Column + 1),
		StartByte:   uint32(n.StartByte()),
		EndByte:     uint32(n.EndByte()),
	}
}
