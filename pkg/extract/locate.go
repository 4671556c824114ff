package extract

import (
	"errors"
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propscan/pkg/parser"
	"github.com/gnana997/propscan/pkg/parser/queries"
)

// MatchStrategy maps a component name to a predicate over declaration names.
// Libraries with other naming conventions supply their own strategy.
type MatchStrategy func(componentName string) func(declName string) bool

// PropsConvention matches <Name>Props and <Name>PropsWithRef exactly.
func PropsConvention(componentName string) func(string) bool {
	props := componentName + "Props"
	withRef := componentName + "PropsWithRef"
	return func(declName string) bool {
		return declName == props || declName == withRef
	}
}

// ExactNames matches declarations whose name is one of names, whatever the
// component. Useful when a caller already knows the interface name.
func ExactNames(names ...string) MatchStrategy {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(string) func(string) bool {
		return func(declName string) bool { return set[declName] }
	}
}

// DeclKind distinguishes interfaces from object-shaped type aliases.
type DeclKind string

const (
	DeclInterface DeclKind = "interface"
	DeclAlias     DeclKind = "alias"
)

// Declaration is a top-level interface-shaped declaration.
type Declaration struct {
	Name string
	Kind DeclKind
	Node *ts.Node
}

// TopLevelDeclarations lists interface-shaped declarations at module top
// level in source order: interfaces, and type aliases whose value is an
// object literal type or an intersection containing one. Declarations may be
// wrapped in export or declare. Dialects without type syntax have none.
func TopLevelDeclarations(root *ts.Node, src []byte, d parser.Dialect, qm *queries.QueryManager) ([]Declaration, error) {
	q, err := qm.GetQuery(d, queries.QueryTypeDeclarations)
	if errors.Is(err, queries.ErrNoQuery) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	matches, err := qm.ExecuteQuery(root, q, src)
	if err != nil {
		return nil, fmt.Errorf("declaration query: %w", err)
	}

	var decls []Declaration
	for _, m := range matches {
		var name, def *queries.QueryCapture
		var kind DeclKind
		switch m.Category() {
		case "interface":
			name, def, kind = m.Capture("interface.name"), m.Capture("interface.definition"), DeclInterface
		case "alias":
			name, def, kind = m.Capture("alias.name"), m.Capture("alias.definition"), DeclAlias
		default:
			continue
		}
		if name == nil || def == nil || !isTopLevel(def.Node) {
			continue
		}
		if kind == DeclAlias && len(declarationBodies(def.Node)) == 0 {
			continue
		}
		decls = append(decls, Declaration{Name: name.Text, Kind: kind, Node: def.Node})
	}
	return decls, nil
}

// isTopLevel reports whether a declaration sits directly in the program,
// possibly behind export and declare wrappers.
func isTopLevel(n *ts.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "program":
			return true
		case "export_statement", "ambient_declaration":
			continue
		default:
			return false
		}
	}
	return false
}

// Locate picks the props declaration for component among decls.
//
// Every declaration accepted by the strategy is a candidate and the one
// declared last wins; all declarations sharing the winner's name are
// returned so their members can be merged. An empty name means no match.
func Locate(decls []Declaration, component string, match MatchStrategy) (string, []*ts.Node) {
	if match == nil {
		match = PropsConvention
	}
	accept := match(component)

	selected := ""
	for _, d := range decls {
		if accept(d.Name) {
			selected = d.Name
		}
	}
	if selected == "" {
		return "", nil
	}

	var nodes []*ts.Node
	for _, d := range decls {
		if d.Name == selected {
			nodes = append(nodes, d.Node)
		}
	}
	return selected, nodes
}
