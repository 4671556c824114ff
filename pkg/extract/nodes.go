package extract

import ts "github.com/tree-sitter/go-tree-sitter"

// namedChildren returns n's named children without comments.
func namedChildren(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	out := make([]*ts.Node, 0, count)
	for i := uint(0); i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.IsExtra() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func firstNamed(n *ts.Node) *ts.Node {
	if cs := namedChildren(n); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

func lastNamed(n *ts.Node) *ts.Node {
	if cs := namedChildren(n); len(cs) > 0 {
		return cs[len(cs)-1]
	}
	return nil
}

// findNamed returns the first direct named child of the given kind.
func findNamed(n *ts.Node, kind string) *ts.Node {
	for _, c := range namedChildren(n) {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// hasToken reports whether n has a direct anonymous child with the given kind,
// e.g. the "?" optional marker on a property signature.
func hasToken(n *ts.Node, tok string) bool {
	if n == nil {
		return false
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && !c.IsNamed() && c.Kind() == tok {
			return true
		}
	}
	return false
}
