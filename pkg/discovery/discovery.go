// Package discovery finds the components of a library on disk.
//
// A library keeps one directory per component, named after the component
// (Button/, TextField/). The component's declarations live in a file named
// after the directory, or in the directory's index.d.ts.
package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/propscan/pkg/extract"
)

// Config controls which component sources are picked up.
type Config struct {
	// Include glob patterns, matched against the source path relative to the
	// library root with forward slashes. Empty includes everything.
	Include []string
	// Exclude glob patterns, matched like Include. Exclusion wins.
	Exclude []string
	// ImportPrefix is prepended to the component name to form its import
	// path, e.g. "@mui/material" gives "@mui/material/Button".
	ImportPrefix string
}

// DefaultConfig skips test, story and build output files.
func DefaultConfig() Config {
	return Config{
		Exclude: []string{
			"node_modules/**",
			"dist/**",
			"build/**",
			"**/*.test.*",
			"**/*.spec.*",
			"**/*.stories.*",
			"**/__tests__/**",
			"**/__mocks__/**",
		},
	}
}

// Validate rejects malformed glob patterns.
func (c Config) Validate() error {
	var errs []error
	for _, p := range c.Include {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid include pattern: %s", p))
		}
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid exclude pattern: %s", p))
		}
	}
	return errors.Join(errs...)
}

// candidates are tried in order; the first existing file is the source.
func candidates(dir string) []string {
	return []string{
		dir + ".d.ts",
		dir + ".tsx",
		dir + ".ts",
		dir + ".js",
		"index.d.ts",
	}
}

// DiscoverComponents lists the components under root in lexical order of
// their directory names. SourcePath is relative to root.
//
// A directory is a component when its name starts with an upper-case letter
// and it holds one of the candidate files. Directories without one are
// skipped silently.
func DiscoverComponents(root string, cfg Config) ([]extract.ComponentDescriptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", extract.ErrLibraryRootUnavailable, err)
	}

	// os.ReadDir sorts by file name.
	descs := []extract.ComponentDescriptor{}
	for _, e := range entries {
		if !e.IsDir() || !IsComponentName(e.Name()) {
			continue
		}
		rel, ok := componentSource(root, e.Name(), cfg)
		if !ok {
			continue
		}
		descs = append(descs, extract.ComponentDescriptor{
			Name:       e.Name(),
			SourcePath: filepath.FromSlash(rel),
			ImportPath: ImportPath(cfg.ImportPrefix, e.Name()),
		})
	}
	return descs, nil
}

func componentSource(root, dir string, cfg Config) (string, bool) {
	for _, file := range candidates(dir) {
		rel := path.Join(dir, file)
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !cfg.selects(rel) {
			continue
		}
		return rel, true
	}
	return "", false
}

func (c Config) selects(rel string) bool {
	for _, p := range c.Exclude {
		if m, _ := doublestar.Match(p, rel); m {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, p := range c.Include {
		if m, _ := doublestar.Match(p, rel); m {
			return true
		}
	}
	return false
}

// IsComponentName reports whether name starts with an upper-case letter.
func IsComponentName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// ImportPath joins prefix and component name with a slash.
func ImportPath(prefix, name string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ReadExportMap returns the component entry points listed in root's
// package.json "exports" field: keys of the form "./Name" where Name starts
// upper-case and has no wildcard, without the "./" prefix, sorted.
//
// A package.json without exports yields an empty list.
func ReadExportMap(root string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	var pkg struct {
		Exports json.RawMessage `json:"exports"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}

	// exports may also be a string or an array; only the object form names
	// subpaths.
	var exports map[string]json.RawMessage
	if len(pkg.Exports) == 0 || json.Unmarshal(pkg.Exports, &exports) != nil {
		return []string{}, nil
	}

	names := []string{}
	for key := range exports {
		name, ok := strings.CutPrefix(key, "./")
		if !ok || strings.ContainsAny(name, "*/") || !IsComponentName(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
