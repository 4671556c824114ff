package parser

import (
	"path/filepath"
	"strings"
)

// Language is a grammar family understood by the parser manager.
type Language int

const (
	LanguageTypeScript Language = iota
	LanguageJavaScript
	LanguageUnknown
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// Dialect selects one concrete grammar: a language plus whether JSX syntax is
// enabled. TypeScript has separate grammars for .ts and .tsx; the JavaScript
// grammar always accepts JSX, so JSX is false for every JavaScript dialect.
type Dialect struct {
	Lang Language
	JSX  bool
}

var (
	DialectTS  = Dialect{Lang: LanguageTypeScript}
	DialectTSX = Dialect{Lang: LanguageTypeScript, JSX: true}
	DialectJS  = Dialect{Lang: LanguageJavaScript}
)

func (d Dialect) String() string {
	if d.JSX {
		return d.Lang.String() + "+jsx"
	}
	return d.Lang.String()
}

// Supported reports whether a grammar exists for d.
func (d Dialect) Supported() bool {
	return d.Lang != LanguageUnknown
}

// DialectFor picks the grammar for a file from its extension. Declaration
// files (.d.ts, .d.mts) resolve through their final extension.
func DialectFor(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return DialectTS
	case ".tsx":
		return DialectTSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return DialectJS
	default:
		return Dialect{Lang: LanguageUnknown}
	}
}

// IsDeclarationFile reports whether path is a TypeScript declaration file.
func IsDeclarationFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
