package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propscan/pkg/util"
)

const buttonDecl = `import * as React from 'react';

export interface ButtonProps {
  /** @description The variant to use. @default 'text' */
  variant?: 'text' | 'outlined' | 'contained';
  onClick?: (event: React.MouseEvent<HTMLButtonElement>) => void;
}

declare const Button: React.FC<ButtonProps>;
export default Button;
`

func newTestManager(t *testing.T) *ParserManager {
	t.Helper()
	pm := NewParserManager(util.DiscardLogger())
	t.Cleanup(func() { pm.Close() })
	return pm
}

func TestParse_Dialects(t *testing.T) {
	pm := newTestManager(t)

	tests := []struct {
		name    string
		dialect Dialect
		source  string
	}{
		{"typescript", DialectTS, buttonDecl},
		{"tsx", DialectTSX, "export const X = () => <div className=\"x\" />;"},
		{"javascript", DialectJS, "export default function Button(props) { return null; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := pm.Parse([]byte(tt.source), tt.dialect)
			require.NoError(t, err)
			defer tree.Close()

			root := tree.RootNode()
			assert.Equal(t, "program", root.Kind())
			assert.False(t, root.HasError())
		})
	}
}

func TestParse_TSXContainsJSX(t *testing.T) {
	pm := newTestManager(t)

	tree, err := pm.Parse([]byte("const el = <Button variant=\"text\">Hi</Button>;"), DialectTSX)
	require.NoError(t, err)
	defer tree.Close()

	assert.Contains(t, tree.RootNode().ToSexp(), "jsx_element")
}

func TestParse_InvalidSyntaxStillReturnsTree(t *testing.T) {
	pm := newTestManager(t)

	tree, err := pm.Parse([]byte("export interface Broken { a: string;;; b: "), DialectTS)
	require.NoError(t, err)
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestParse_UnknownDialect(t *testing.T) {
	pm := newTestManager(t)

	_, err := pm.Parse([]byte("x"), Dialect{Lang: LanguageUnknown})
	assert.True(t, errors.Is(err, ErrUnsupportedDialect))

	_, err = pm.ParseFile([]byte("x"), "styles.css")
	assert.True(t, errors.Is(err, ErrUnsupportedDialect))
	assert.Contains(t, err.Error(), "styles.css")
}

func TestParseFile_DeclarationFile(t *testing.T) {
	pm := newTestManager(t)

	tree, err := pm.ParseFile([]byte(buttonDecl), "Button/Button.d.ts")
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "program", tree.RootNode().Kind())
}

func TestStats_LazyPools(t *testing.T) {
	pm := newTestManager(t)

	stats := pm.Stats()
	assert.Equal(t, 0, stats.ParsersCreated)
	assert.Equal(t, 0, stats.Dialects)

	for i := 0; i < 3; i++ {
		tree, err := pm.Parse([]byte(buttonDecl), DialectTS)
		require.NoError(t, err)
		tree.Close()
	}

	stats = pm.Stats()
	assert.Equal(t, 3, stats.ParsesCalled)
	assert.Equal(t, 1, stats.Dialects)
	assert.Equal(t, 1, stats.ParsersCreated, "sequential parses reuse one parser")
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		path string
		want Dialect
	}{
		{"Button/Button.d.ts", DialectTS},
		{"index.ts", DialectTS},
		{"types.mts", DialectTS},
		{"Button.tsx", DialectTSX},
		{"Button.TSX", DialectTSX},
		{"Button.js", DialectJS},
		{"Button.jsx", DialectJS},
		{"index.cjs", DialectJS},
		{"README.md", Dialect{Lang: LanguageUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DialectFor(tt.path))
		})
	}
}

func TestIsDeclarationFile(t *testing.T) {
	assert.True(t, IsDeclarationFile("Button/Button.d.ts"))
	assert.True(t, IsDeclarationFile("index.D.TS"))
	assert.True(t, IsDeclarationFile("x.d.mts"))
	assert.False(t, IsDeclarationFile("Button.ts"))
	assert.False(t, IsDeclarationFile("Button.tsx"))
}

func TestDialectString(t *testing.T) {
	assert.Equal(t, "typescript", DialectTS.String())
	assert.Equal(t, "typescript+jsx", DialectTSX.String())
	assert.Equal(t, "javascript", DialectJS.String())
	assert.Equal(t, "unknown", Language(99).String())
}
