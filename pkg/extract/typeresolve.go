package extract

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Rendering is the display string for a declared type. Exact is false when
// some part of the type had an unsupported or malformed shape and was copied
// from the source text instead; Reason then says which.
type Rendering struct {
	Text   string
	Exact  bool
	Reason string
}

// implicitAny is the rendering of a member declared without an annotation.
const implicitAny = "any"

// ResolveType renders a type node in canonical TypeScript form. node may be
// a type_annotation or the type itself; nil renders as "any".
//
// ResolveType never fails. Unsupported shapes are copied from the source
// with whitespace collapsed and reported through Rendering.Exact.
func ResolveType(node *ts.Node, src []byte) Rendering {
	p := &typePrinter{src: src}
	text := p.print(node)
	if text == "" {
		text = implicitAny
	}
	return Rendering{
		Text:   text,
		Exact:  len(p.fallbacks) == 0,
		Reason: strings.Join(p.fallbacks, "; "),
	}
}

type typePrinter struct {
	src       []byte
	fallbacks []string
}

func (p *typePrinter) print(n *ts.Node) string {
	if n == nil {
		return implicitAny
	}
	if n.IsError() || n.IsMissing() {
		return p.fallback(n, "malformed type")
	}

	switch n.Kind() {
	case "type_annotation", "opting_type_annotation", "omitting_type_annotation",
		"adding_type_annotation", "asserts_annotation", "type_predicate_annotation":
		inner := firstNamed(n)
		if inner == nil {
			return p.fallback(n, "empty type annotation")
		}
		return p.print(inner)

	case "predefined_type", "type_identifier", "this_type", "existential_type",
		"type_predicate", "asserts":
		return collapse(p.text(n))

	case "nested_type_identifier", "nested_identifier", "identifier", "member_expression":
		return strings.Join(strings.Fields(p.text(n)), "")

	case "literal_type":
		return p.literal(n)

	case "string":
		return quoteString(p.text(n))

	case "template_literal_type", "template_string":
		return p.text(n)

	case "parenthesized_type":
		inner := firstNamed(n)
		if inner == nil {
			return p.fallback(n, "empty parenthesized type")
		}
		return p.print(inner)

	case "union_type":
		return p.joinOperands(n, " | ", unionNeedsParens)

	case "intersection_type":
		return p.joinOperands(n, " & ", intersectionNeedsParens)

	case "array_type":
		elem := firstNamed(n)
		return p.wrap(elem, arrayElemNeedsParens) + "[]"

	case "readonly_type":
		return "readonly " + p.wrap(firstNamed(n), operatorNeedsParens)

	case "tuple_type":
		parts := make([]string, 0, n.NamedChildCount())
		for _, m := range namedChildren(n) {
			parts = append(parts, p.print(m))
		}
		return "[" + strings.Join(parts, ", ") + "]"

	case "optional_type":
		return p.wrap(firstNamed(n), arrayElemNeedsParens) + "?"

	case "rest_type":
		return "..." + p.print(firstNamed(n))

	case "required_parameter", "optional_parameter", "tuple_parameter", "optional_tuple_parameter":
		// Named tuple members surface as parameters.
		return p.parameter(n)

	case "generic_type":
		name := p.print(n.ChildByFieldName("name"))
		return name + p.typeArguments(n.ChildByFieldName("type_arguments"))

	case "function_type":
		return p.signature(n, "")

	case "constructor_type":
		prefix := "new "
		if hasToken(n, "abstract") {
			prefix = "abstract new "
		}
		return p.signature(n, prefix)

	case "object_type":
		return p.object(n)

	case "type_query":
		expr := strings.TrimSpace(strings.TrimPrefix(collapse(p.text(n)), "typeof"))
		return "typeof " + expr

	case "index_type_query":
		return "keyof " + p.wrap(firstNamed(n), operatorNeedsParens)

	case "lookup_type":
		parts := namedChildren(n)
		if len(parts) != 2 {
			return p.fallback(n, "indexed access without index")
		}
		return p.wrap(parts[0], arrayElemNeedsParens) + "[" + p.print(parts[1]) + "]"

	case "conditional_type":
		return p.wrap(n.ChildByFieldName("left"), unionNeedsParens) +
			" extends " + p.print(n.ChildByFieldName("right")) +
			" ? " + p.print(n.ChildByFieldName("consequence")) +
			" : " + p.print(n.ChildByFieldName("alternative"))

	case "infer_type":
		return collapse(p.text(n))

	default:
		return p.fallback(n, "unsupported type form "+n.Kind())
	}
}

// signature prints function and constructor types as `(a: T) => R`.
func (p *typePrinter) signature(n *ts.Node, prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		b.WriteString(collapse(p.text(tp)))
	}
	b.WriteString(p.parameters(n.ChildByFieldName("parameters")))
	b.WriteString(" => ")
	ret := n.ChildByFieldName("return_type")
	if ret == nil {
		ret = lastNamed(n)
	}
	b.WriteString(p.print(ret))
	return b.String()
}

// methodType prints a method or call signature member as a function type.
func (p *typePrinter) methodType(n *ts.Node) string {
	var b strings.Builder
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		b.WriteString(collapse(p.text(tp)))
	}
	b.WriteString(p.parameters(n.ChildByFieldName("parameters")))
	b.WriteString(" => ")
	b.WriteString(p.print(n.ChildByFieldName("return_type")))
	return b.String()
}

func (p *typePrinter) parameters(n *ts.Node) string {
	if n == nil {
		return "()"
	}
	parts := make([]string, 0, n.NamedChildCount())
	for _, param := range namedChildren(n) {
		switch param.Kind() {
		case "required_parameter", "optional_parameter":
			parts = append(parts, p.parameter(param))
		default:
			parts = append(parts, p.fallback(param, "unsupported parameter "+param.Kind()))
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// parameter prints `name?: T`. Function parameters keep the name in the
// pattern field, tuple members in the name field.
func (p *typePrinter) parameter(n *ts.Node) string {
	nameNode := n.ChildByFieldName("pattern")
	if nameNode == nil {
		nameNode = n.ChildByFieldName("name")
	}
	if nameNode == nil {
		nameNode = firstNamed(n)
	}
	s := collapse(p.text(nameNode))
	if k := n.Kind(); k == "optional_parameter" || k == "optional_tuple_parameter" {
		s += "?"
	}
	if t := n.ChildByFieldName("type"); t != nil {
		s += ": " + p.print(t)
	}
	return s
}

func (p *typePrinter) typeArguments(n *ts.Node) string {
	if n == nil {
		return ""
	}
	args := namedChildren(n)
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, p.print(a))
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// object prints an object literal type on one line: `{ a: string; b?: () => void; }`.
func (p *typePrinter) object(n *ts.Node) string {
	members := namedChildren(n)
	if len(members) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{ ")
	for _, m := range members {
		b.WriteString(p.objectMember(m))
		b.WriteString("; ")
	}
	b.WriteString("}")
	return b.String()
}

func (p *typePrinter) objectMember(m *ts.Node) string {
	opt := ""
	if hasToken(m, "?") {
		opt = "?"
	}
	switch m.Kind() {
	case "property_signature":
		prefix := ""
		if hasToken(m, "readonly") {
			prefix = "readonly "
		}
		return prefix + p.propertyKey(m.ChildByFieldName("name")) + opt + ": " +
			p.print(m.ChildByFieldName("type"))
	case "method_signature":
		return p.propertyKey(m.ChildByFieldName("name")) + opt + p.callSignature(m)
	case "call_signature":
		return p.callSignature(m)
	case "construct_signature":
		return "new " + p.callSignature(m)
	case "index_signature":
		if findNamed(m, "mapped_type_clause") != nil {
			return p.fallback(m, "mapped type")
		}
		return collapse(p.text(m))
	default:
		return p.fallback(m, "unsupported object member "+m.Kind())
	}
}

// callSignature prints `(a: T): R`, the member form used inside object types.
func (p *typePrinter) callSignature(n *ts.Node) string {
	s := ""
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		s = collapse(p.text(tp))
	}
	s += p.parameters(n.ChildByFieldName("parameters"))
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		s += ": " + p.print(ret)
	} else if n.Kind() != "construct_signature" {
		s += ": " + implicitAny
	}
	return s
}

func (p *typePrinter) propertyKey(n *ts.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind() == "string" {
		return quoteString(p.text(n))
	}
	return collapse(p.text(n))
}

func (p *typePrinter) literal(n *ts.Node) string {
	inner := firstNamed(n)
	if inner == nil {
		// true, false, null and undefined may surface as anonymous tokens.
		return collapse(p.text(n))
	}
	switch inner.Kind() {
	case "string":
		return quoteString(p.text(inner))
	case "unary_expression":
		return strings.Join(strings.Fields(p.text(inner)), "")
	default:
		return collapse(p.text(inner))
	}
}

// joinOperands flattens the left-recursive binary union/intersection tree.
func (p *typePrinter) joinOperands(n *ts.Node, sep string, needsParens func(string) bool) string {
	var operands []*ts.Node
	var walk func(*ts.Node)
	walk = func(x *ts.Node) {
		for _, c := range namedChildren(x) {
			if c.Kind() == x.Kind() {
				walk(c)
				continue
			}
			operands = append(operands, c)
		}
	}
	walk(n)

	parts := make([]string, 0, len(operands))
	for _, o := range operands {
		parts = append(parts, p.wrap(o, needsParens))
	}
	return strings.Join(parts, sep)
}

// wrap prints n, parenthesizing it when its underlying kind binds looser
// than the surrounding operator.
func (p *typePrinter) wrap(n *ts.Node, needsParens func(string) bool) string {
	if n == nil {
		return p.print(nil)
	}
	s := p.print(n)
	if needsParens(coreKind(n)) {
		return "(" + s + ")"
	}
	return s
}

func (p *typePrinter) fallback(n *ts.Node, reason string) string {
	p.fallbacks = append(p.fallbacks, reason)
	text := collapse(p.text(n))
	if text == "" {
		return implicitAny
	}
	return text
}

func (p *typePrinter) text(n *ts.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(p.src)
}

func unionNeedsParens(kind string) bool {
	switch kind {
	case "function_type", "constructor_type", "conditional_type":
		return true
	}
	return false
}

func intersectionNeedsParens(kind string) bool {
	return kind == "union_type" || unionNeedsParens(kind)
}

// operatorNeedsParens applies to the operand of keyof and readonly.
func operatorNeedsParens(kind string) bool {
	return kind == "intersection_type" || intersectionNeedsParens(kind)
}

func arrayElemNeedsParens(kind string) bool {
	switch kind {
	case "union_type", "intersection_type", "index_type_query", "readonly_type", "type_query":
		return true
	}
	return unionNeedsParens(kind)
}

// coreKind looks through parentheses.
func coreKind(n *ts.Node) string {
	for n != nil && n.Kind() == "parenthesized_type" {
		n = firstNamed(n)
	}
	if n == nil {
		return ""
	}
	return n.Kind()
}

// quoteString re-quotes a string literal with double quotes.
func quoteString(raw string) string {
	if len(raw) < 2 || raw[0] != '\'' {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte('"')
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '\\' && i+1 < len(inner) && inner[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(inner):
			b.WriteByte(c)
			b.WriteByte(inner[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
