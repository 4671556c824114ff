package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gnana997/propscan/pkg/extract"
)

// ErrNotFound is returned when a component is not in the library.
var ErrNotFound = errors.New("component not found")

// Library is a written output directory loaded back into memory.
type Library struct {
	Index      extract.LibraryIndex
	Components []extract.ComponentResult

	byName map[string]*extract.ComponentResult
}

// PropMatch is one hit of SearchProps.
type PropMatch struct {
	Component string              `json:"component"`
	Prop      extract.MemberRecord `json:"prop"`
}

// Load reads index.json from dir and every component file it lists, in
// index order. Component files missing from disk are reported together.
func Load(dir string) (*Library, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var idx extract.LibraryIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	lib := &Library{
		Index:      idx,
		Components: make([]extract.ComponentResult, 0, len(idx.Components)),
	}
	var errs []error
	for _, s := range idx.Components {
		var r extract.ComponentResult
		if err := readJSON(filepath.Join(dir, s.File), &r); err != nil {
			errs = append(errs, err)
			continue
		}
		lib.Components = append(lib.Components, r)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	lib.buildIndex()
	return lib, nil
}

// FromRun builds a Library from an in-memory run.
func FromRun(run *extract.RunResult) *Library {
	lib := &Library{Index: run.Index, Components: run.Results}
	lib.buildIndex()
	return lib
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("component file %s: %w", filepath.Base(path), err)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (l *Library) buildIndex() {
	l.byName = make(map[string]*extract.ComponentResult, len(l.Components))
	for i := range l.Components {
		l.byName[l.Components[i].ComponentName] = &l.Components[i]
	}
}

// Names returns component names in index order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Components))
	for _, c := range l.Components {
		names = append(names, c.ComponentName)
	}
	return names
}

// Component looks a component up by exact name, then case-insensitively.
func (l *Library) Component(name string) (*extract.ComponentResult, error) {
	if c, ok := l.byName[name]; ok {
		return c, nil
	}
	for i := range l.Components {
		if strings.EqualFold(l.Components[i].ComponentName, name) {
			return &l.Components[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// SearchProps returns the props whose name contains query, case-insensitively,
// ordered by component then prop order. An empty query matches nothing.
func (l *Library) SearchProps(query string) []PropMatch {
	matches := []PropMatch{}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return matches
	}
	for _, c := range l.Components {
		for _, p := range c.Props {
			if strings.Contains(strings.ToLower(p.Name), query) {
				matches = append(matches, PropMatch{Component: c.ComponentName, Prop: p})
			}
		}
	}
	return matches
}

// Summaries returns the index rows sorted by component name.
func (l *Library) Summaries() []extract.ComponentSummary {
	out := make([]extract.ComponentSummary, len(l.Index.Components))
	copy(out, l.Index.Components)
	sort.Slice(out, func(i, j int) bool { return out[i].ComponentName < out[j].ComponentName })
	return out
}
