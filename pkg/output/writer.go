// Package output writes extraction results to disk and loads them back.
//
// A written library is a directory holding one JSON file per component, an
// index.json summarizing the run and an all_components.json keyed by
// component name.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnana997/propscan/pkg/extract"
)

const (
	IndexFile = "index.json"
	AllFile   = "all_components.json"
)

// Writer writes results under Dir. Suffix, when set, is appended to each
// component file name: TextField with suffix "auto" becomes
// textfield-auto.json.
type Writer struct {
	Dir    string
	Suffix string
}

// FileName returns the file a component is written to, relative to Dir.
// It has the signature of extract.Options.FileName.
func (w Writer) FileName(componentName string) string {
	base := strings.ToLower(componentName)
	if w.Suffix != "" {
		base += "-" + w.Suffix
	}
	return base + ".json"
}

// WriteComponent writes one component file and returns its path.
func (w Writer) WriteComponent(r extract.ComponentResult) (string, error) {
	path := filepath.Join(w.Dir, w.FileName(r.ComponentName))
	return path, writeJSON(path, r)
}

// WriteIndex writes index.json.
func (w Writer) WriteIndex(idx extract.LibraryIndex) error {
	return writeJSON(filepath.Join(w.Dir, IndexFile), idx)
}

// WriteAll writes every result keyed by component name to all_components.json.
func (w Writer) WriteAll(results []extract.ComponentResult) error {
	all := make(map[string]extract.ComponentResult, len(results))
	for _, r := range results {
		all[r.ComponentName] = r
	}
	return writeJSON(filepath.Join(w.Dir, AllFile), all)
}

// WriteRun writes the component files, the index and the aggregate file of
// one run. Every file is attempted; errors are joined.
func (w Writer) WriteRun(run *extract.RunResult) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var errs []error
	for _, r := range run.Results {
		if _, err := w.WriteComponent(r); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.WriteIndex(run.Index); err != nil {
		errs = append(errs, err)
	}
	if err := w.WriteAll(run.Results); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// writeJSON writes v as two-space indented JSON with a trailing newline,
// creating parent directories.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
