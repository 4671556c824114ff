package extract

import (
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// MemberOptions controls how member records are built.
type MemberOptions struct {
	// SummaryAsDescription uses a comment's untagged text as the description
	// when it has no @description tag.
	SummaryAsDescription bool
}

// ExtractMembers builds one MemberRecord per property or method declared in
// decls, in source order. decls are declarations of one name, so their
// members are merged as TypeScript merges interface declarations; when a
// member name repeats, the first declaration wins.
//
// Index, call and construct signatures declare no named member and are
// skipped. Returned diagnostics carry no component name.
func ExtractMembers(decls []*ts.Node, src []byte, opts MemberOptions) ([]MemberRecord, []Diagnostic) {
	records := []MemberRecord{}
	var diags []Diagnostic
	seen := make(map[string]bool)

	for _, decl := range decls {
		for _, body := range declarationBodies(decl) {
			for _, m := range namedChildren(body) {
				if m.Kind() != "property_signature" && m.Kind() != "method_signature" {
					continue
				}
				rec, diag := extractMember(m, src, opts)
				if rec.Name == "" || seen[rec.Name] {
					continue
				}
				seen[rec.Name] = true
				records = append(records, rec)
				if diag != nil {
					diags = append(diags, *diag)
				}
			}
		}
	}
	return records, diags
}

func extractMember(m *ts.Node, src []byte, opts MemberOptions) (MemberRecord, *Diagnostic) {
	name := memberName(m.ChildByFieldName("name"), src)

	var rendering Rendering
	if m.Kind() == "method_signature" {
		rendering = resolveMethodType(m, src)
	} else {
		rendering = ResolveType(m.ChildByFieldName("type"), src)
	}

	doc := LeadingDoc(m, src)
	rec := MemberRecord{
		Name:        name,
		Type:        rendering.Text,
		Description: describe(name, doc, opts),
		Required:    !hasToken(m, "?"),
	}
	if def, ok := doc.Tags.Lookup(TagDefault); ok {
		rec.Default = &def
	}

	if rendering.Exact {
		return rec, nil
	}
	return rec, &Diagnostic{Member: name, Kind: DiagTypeFallback, Detail: rendering.Reason}
}

// FallbackDescription is the description given to undocumented members.
func FallbackDescription(name string) string {
	return name + " property"
}

func describe(name string, doc DocComment, opts MemberOptions) string {
	if d, ok := doc.Tags.Lookup(TagDescription); ok && d != "" {
		return d
	}
	if opts.SummaryAsDescription && doc.Summary != "" {
		return doc.Summary
	}
	return FallbackDescription(name)
}

// resolveMethodType renders `onClick(event: E): void` as `(event: E) => void`.
func resolveMethodType(m *ts.Node, src []byte) Rendering {
	p := &typePrinter{src: src}
	text := p.methodType(m)
	return Rendering{
		Text:   text,
		Exact:  len(p.fallbacks) == 0,
		Reason: strings.Join(p.fallbacks, "; "),
	}
}

// declarationBodies returns the member containers of an interface-shaped
// declaration: the interface body, or the object literal types that make up
// a type alias.
func declarationBodies(decl *ts.Node) []*ts.Node {
	if decl == nil {
		return nil
	}
	switch decl.Kind() {
	case "interface_declaration":
		body := decl.ChildByFieldName("body")
		if body == nil {
			body = findNamed(decl, "interface_body")
		}
		if body == nil {
			body = findNamed(decl, "object_type")
		}
		if body == nil {
			return nil
		}
		return []*ts.Node{body}
	case "type_alias_declaration":
		return objectTypes(decl.ChildByFieldName("value"))
	default:
		return nil
	}
}

// objectTypes returns the object literal types of a type alias value,
// looking through parentheses and intersections.
func objectTypes(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "object_type":
		return []*ts.Node{n}
	case "parenthesized_type":
		return objectTypes(firstNamed(n))
	case "intersection_type":
		var out []*ts.Node
		for _, c := range namedChildren(n) {
			out = append(out, objectTypes(c)...)
		}
		return out
	default:
		return nil
	}
}

// memberName returns a member's declared name with string quotes removed.
func memberName(n *ts.Node, src []byte) string {
	if n == nil {
		return ""
	}
	text := n.Utf8Text(src)
	if n.Kind() != "string" || len(text) < 2 {
		return collapse(text)
	}
	if text[0] == '"' {
		if s, err := strconv.Unquote(text); err == nil {
			return s
		}
	}
	return text[1 : len(text)-1]
}
