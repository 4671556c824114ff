package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propscan/pkg/extract"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func names(descs []extract.ComponentDescriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Name)
	}
	return out
}

func TestDiscoverComponents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Button/Button.d.ts", "export interface ButtonProps {}")
	writeFile(t, root, "Button/Button.js", "export default null;")
	writeFile(t, root, "Alert/index.d.ts", "export interface AlertProps {}")
	writeFile(t, root, "TextField/TextField.tsx", "export interface TextFieldProps {}")
	writeFile(t, root, "Chip/Chip.ts", "export interface ChipProps {}")
	writeFile(t, root, "styles/styles.d.ts", "export {}")
	writeFile(t, root, "Empty/README.md", "nothing here")
	writeFile(t, root, "Loose.d.ts", "export {}")

	descs, err := DiscoverComponents(root, Config{ImportPrefix: "@acme/ui/"})
	require.NoError(t, err)

	assert.Equal(t, []extract.ComponentDescriptor{
		{Name: "Alert", SourcePath: filepath.Join("Alert", "index.d.ts"), ImportPath: "@acme/ui/Alert"},
		{Name: "Button", SourcePath: filepath.Join("Button", "Button.d.ts"), ImportPath: "@acme/ui/Button"},
		{Name: "Chip", SourcePath: filepath.Join("Chip", "Chip.ts"), ImportPath: "@acme/ui/Chip"},
		{Name: "TextField", SourcePath: filepath.Join("TextField", "TextField.tsx"), ImportPath: "@acme/ui/TextField"},
	}, descs)
}

func TestDiscoverComponents_Patterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Button/Button.d.ts", "")
	writeFile(t, root, "Button/Button.tsx", "")
	writeFile(t, root, "Card/Card.tsx", "")
	writeFile(t, root, "Internal/Internal.d.ts", "")

	t.Run("exclude falls through to next candidate", func(t *testing.T) {
		descs, err := DiscoverComponents(root, Config{Exclude: []string{"**/*.d.ts"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Button", "Card"}, names(descs))
		assert.Equal(t, filepath.Join("Button", "Button.tsx"), descs[0].SourcePath)
	})

	t.Run("include", func(t *testing.T) {
		descs, err := DiscoverComponents(root, Config{Include: []string{"{Button,Internal}/**"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Button", "Internal"}, names(descs))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := DiscoverComponents(root, Config{Exclude: []string{"[unclosed"}})
		assert.Error(t, err)
	})
}

func TestDiscoverComponents_DefaultConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Button/Button.d.ts", "")
	writeFile(t, root, "Button/__tests__/Button.test.tsx", "")

	descs, err := DiscoverComponents(root, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"Button"}, names(descs))
	assert.Equal(t, "Button", descs[0].ImportPath)
}

func TestDiscoverComponents_RootUnavailable(t *testing.T) {
	_, err := DiscoverComponents(filepath.Join(t.TempDir(), "missing"), Config{})
	assert.ErrorIs(t, err, extract.ErrLibraryRootUnavailable)
}

func TestDiscoverComponents_EmptyRoot(t *testing.T) {
	descs, err := DiscoverComponents(t.TempDir(), Config{})
	require.NoError(t, err)
	assert.NotNil(t, descs)
	assert.Empty(t, descs)
}

func TestIsComponentName(t *testing.T) {
	assert.True(t, IsComponentName("Button"))
	assert.True(t, IsComponentName("Ärger"))
	assert.False(t, IsComponentName("button"))
	assert.False(t, IsComponentName("_Button"))
	assert.False(t, IsComponentName(""))
}

func TestImportPath(t *testing.T) {
	assert.Equal(t, "@mui/material/Button", ImportPath("@mui/material", "Button"))
	assert.Equal(t, "@mui/material/Button", ImportPath("@mui/material/", "Button"))
	assert.Equal(t, "Button", ImportPath("", "Button"))
}

func TestReadExportMap(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{
  "name": "@acme/ui",
  "exports": {
    ".": "./index.js",
    "./package.json": "./package.json",
    "./Button": {"types": "./Button/index.d.ts"},
    "./Alert": "./Alert/index.js",
    "./*": "./*/index.js",
    "./styles": "./styles/index.js",
    "./Card/styles": "./Card/styles.js"
  }
}`)

	names, err := ReadExportMap(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alert", "Button"}, names)
}

func TestReadExportMap_NoExports(t *testing.T) {
	t.Run("no package.json", func(t *testing.T) {
		names, err := ReadExportMap(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("string exports", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"exports": "./index.js"}`)
		names, err := ReadExportMap(root)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("invalid json", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"exports": `)
		_, err := ReadExportMap(root)
		assert.Error(t, err)
	})
}
