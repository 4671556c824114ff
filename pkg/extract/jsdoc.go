package extract

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Well-known tag names.
const (
	TagDescription = "description"
	TagDefault     = "default"
)

// Tags maps a documentation tag name to its text. A tag written without text
// maps to "".
type Tags map[string]string

// Lookup returns a tag's text and whether the tag was present.
func (t Tags) Lookup(name string) (string, bool) {
	v, ok := t[name]
	return v, ok
}

// DocComment is a parsed documentation block: the free text before the first
// tag plus the tags.
type DocComment struct {
	Summary string
	Tags    Tags
}

// DocTags returns the tags of the documentation comments attached to a
// declaration node. A node without documentation yields an empty map.
func DocTags(node *ts.Node, src []byte) Tags {
	return LeadingDoc(node, src).Tags
}

// LeadingDoc collects and merges every /** */ block that documents node.
//
// A block documents the node when it sits between the previous token and the
// node and starts on a later line than that token ends on; a block on the
// previous token's line is that token's trailing comment. Ordinary comments
// in the run are skipped.
func LeadingDoc(node *ts.Node, src []byte) DocComment {
	doc := DocComment{Tags: Tags{}}
	if node == nil {
		return doc
	}

	var comments []*ts.Node
	prev := node.PrevSibling()
	for prev != nil && prev.Kind() == "comment" {
		comments = append(comments, prev)
		prev = prev.PrevSibling()
	}
	if len(comments) == 0 {
		return doc
	}

	// Only comments on a later line than the preceding token count.
	boundary := -1
	if prev != nil {
		boundary = int(prev.EndPosition().Row)
	}

	var summaries []string
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if int(c.StartPosition().Row) <= boundary {
			continue
		}
		parsed, ok := parseDocBlock(c.Utf8Text(src))
		if !ok {
			continue
		}
		if parsed.Summary != "" {
			summaries = append(summaries, parsed.Summary)
		}
		mergeTags(doc.Tags, parsed.Tags)
	}
	doc.Summary = strings.Join(summaries, " ")
	return doc
}

// mergeTags folds src into dst: descriptions accumulate, other tags keep the
// first value seen.
func mergeTags(dst, src Tags) {
	for name, text := range src {
		old, seen := dst[name]
		switch {
		case !seen:
			dst[name] = text
		case name == TagDescription:
			dst[name] = joinNonEmpty(old, text)
		}
	}
}

// ParseDoc parses the text of a single documentation comment. Comments that
// are not /** */ blocks yield an empty DocComment.
func ParseDoc(comment string) DocComment {
	doc, _ := parseDocBlock(comment)
	return doc
}

type docSection struct {
	tag   string
	parts []string
}

func parseDocBlock(comment string) (DocComment, bool) {
	doc := DocComment{Tags: Tags{}}
	body, ok := stripDocDelimiters(comment)
	if !ok {
		return doc, false
	}

	var summary []string
	var sections []docSection
	for _, line := range docLines(body) {
		if line == "" {
			continue
		}
		if len(sections) == 0 && !strings.HasPrefix(line, "@") {
			summary = append(summary, line)
			continue
		}
		for _, seg := range splitTagSegments(line) {
			if !strings.HasPrefix(seg, "@") {
				cur := &sections[len(sections)-1]
				cur.parts = append(cur.parts, seg)
				continue
			}
			name, text := splitTag(seg)
			s := docSection{tag: name}
			if text != "" {
				s.parts = []string{text}
			}
			sections = append(sections, s)
		}
	}

	doc.Summary = strings.Join(summary, " ")
	for _, s := range sections {
		mergeTags(doc.Tags, Tags{s.tag: strings.Join(s.parts, " ")})
	}
	return doc, true
}

func stripDocDelimiters(comment string) (string, bool) {
	c := strings.TrimSpace(comment)
	if !strings.HasPrefix(c, "/**") || !strings.HasSuffix(c, "*/") || c == "/**/" {
		return "", false
	}
	return c[3 : len(c)-2], true
}

// docLines splits a comment body into lines with the leading "*" gutter and
// surrounding whitespace removed.
func docLines(body string) []string {
	raw := strings.Split(body, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(strings.TrimSuffix(l, "\r"))
		l = strings.TrimPrefix(l, "*")
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

// splitTagSegments cuts a line at every "@tag" that follows whitespace and is
// outside backticks. "user@example.com" and "{@link X}" stay whole.
func splitTagSegments(line string) []string {
	var segs []string
	start := 0
	inCode := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '`':
			inCode = !inCode
		case '@':
			if inCode || i == 0 || i+1 >= len(line) || !isTagChar(line[i+1]) {
				continue
			}
			if prev := line[i-1]; prev != ' ' && prev != '\t' {
				continue
			}
			if seg := strings.TrimSpace(line[start:i]); seg != "" {
				segs = append(segs, seg)
			}
			start = i
		}
	}
	if seg := strings.TrimSpace(line[start:]); seg != "" {
		segs = append(segs, seg)
	}
	return segs
}

// splitTag splits "@default 'text'" into ("default", "'text'").
func splitTag(seg string) (name, text string) {
	seg = strings.TrimPrefix(seg, "@")
	end := 0
	for end < len(seg) && isTagChar(seg[end]) {
		end++
	}
	return seg[:end], strings.TrimSpace(seg[end:])
}

func isTagChar(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
