// Package extract turns TypeScript component declarations into prop, event
// and documentation metadata without running any component code.
//
// For each component the pipeline parses its source, finds the props
// declaration named after the component, renders each member's declared
// type, reads its JSDoc tags and splits event handlers out of the props.
// Run does this for a whole library and builds the library index.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propscan/pkg/parser"
	"github.com/gnana997/propscan/pkg/parser/queries"
	"github.com/gnana997/propscan/pkg/source"
	"github.com/gnana997/propscan/pkg/util"
)

// Options configures an Extractor. The zero value is usable.
type Options struct {
	// Match selects props declarations. Defaults to PropsConvention.
	Match MatchStrategy

	// Workers bounds concurrent component extraction in Run. Zero selects
	// util.GetOptimalPoolSize; 1 processes components sequentially.
	Workers int

	// AllowPartialParse extracts from trees that contain syntax errors
	// instead of reporting a parse failure.
	AllowPartialParse bool

	// SummaryAsDescription, see MemberOptions.
	SummaryAsDescription bool

	// IndexDescription and IndexVersion are copied into the LibraryIndex.
	IndexDescription string
	IndexVersion     string

	// FileName names a component's result file in the index. Defaults to
	// DefaultFileName.
	FileName func(componentName string) string

	// Reader opens component sources. Defaults to a source.MmapReader.
	Reader source.Reader

	// Now and NewRunID stamp the index. Defaults are time.Now and uuid.NewString.
	Now      func() time.Time
	NewRunID func() string
}

const (
	DefaultIndexDescription = "Component library props (auto-extracted)"
	DefaultIndexVersion     = "1.x"
)

// DefaultFileName is the lower-cased component name with a .json extension.
func DefaultFileName(componentName string) string {
	return strings.ToLower(componentName) + ".json"
}

func (o Options) withDefaults(logger *slog.Logger) Options {
	if o.Match == nil {
		o.Match = PropsConvention
	}
	if o.IndexDescription == "" {
		o.IndexDescription = DefaultIndexDescription
	}
	if o.IndexVersion == "" {
		o.IndexVersion = DefaultIndexVersion
	}
	if o.FileName == nil {
		o.FileName = DefaultFileName
	}
	if o.Reader == nil {
		o.Reader = source.NewMmapReader(logger)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewRunID == nil {
		o.NewRunID = uuid.NewString
	}
	return o
}

// Extractor runs the extraction pipeline. It is safe for concurrent use and
// must be closed when no longer needed.
type Extractor struct {
	pm     *parser.ParserManager
	qm     *queries.QueryManager
	opts   Options
	logger *slog.Logger
}

// NewExtractor creates an Extractor with its own parser and query managers.
// Parser pools are sized to the worker count so workers never wait on a
// parser.
func NewExtractor(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults(logger)
	pm := parser.NewParserManagerWithPoolSize(logger, opts.Workers)
	return &Extractor{
		pm:     pm,
		qm:     queries.NewQueryManager(pm, logger),
		opts:   opts,
		logger: logger,
	}
}

// Close releases compiled queries and pooled parsers.
func (e *Extractor) Close() error {
	return errors.Join(e.qm.Close(), e.pm.Close())
}

// ExtractComponent reads and extracts one component. A missing or unreadable
// source, or a source that does not parse, returns a *ComponentError and no
// result. A source without a matching props declaration is not an error: it
// yields an empty result plus a DiagNoMatchingInterface diagnostic.
func (e *Extractor) ExtractComponent(ctx context.Context, desc ComponentDescriptor) (*ComponentResult, []Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := e.opts.Reader.Open(desc.SourcePath)
	if err != nil {
		return nil, nil, sourceError(desc, err)
	}
	defer f.Close()
	return e.ExtractSource(desc, f.Data)
}

// ExtractSource extracts one component from source text already in memory.
// desc.SourcePath only selects the grammar.
func (e *Extractor) ExtractSource(desc ComponentDescriptor, src []byte) (*ComponentResult, []Diagnostic, error) {
	d := parser.DialectFor(desc.SourcePath)
	if !d.Supported() {
		return nil, nil, parseError(desc, fmt.Errorf("no grammar for %q", filepath.Ext(desc.SourcePath)))
	}
	tree, err := e.pm.Parse(src, d)
	if err != nil {
		return nil, nil, parseError(desc, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() && !e.opts.AllowPartialParse {
		row, col := firstSyntaxError(root)
		return nil, nil, parseError(desc, fmt.Errorf("%w: syntax error at %d:%d", ErrParseFailure, row+1, col+1))
	}

	decls, err := TopLevelDeclarations(root, src, d, e.qm)
	if err != nil {
		return nil, nil, parseError(desc, err)
	}

	name, nodes := Locate(decls, desc.Name, e.opts.Match)
	if name == "" {
		declFile := parser.IsDeclarationFile(desc.SourcePath)
		e.logger.Info("no props declaration", "component", desc.Name, "file", desc.SourcePath, "declaration_file", declFile)
		detail := fmt.Sprintf("no declaration matches %s in %s", desc.Name, filepath.Base(desc.SourcePath))
		if !declFile {
			detail += " (not a .d.ts file)"
		}
		diag := Diagnostic{
			ComponentName: desc.Name,
			Kind:          DiagNoMatchingInterface,
			Detail:        detail,
		}
		return newComponentResult(desc, nil), []Diagnostic{diag}, nil
	}

	members, diags := ExtractMembers(nodes, src, MemberOptions{SummaryAsDescription: e.opts.SummaryAsDescription})
	for i := range diags {
		diags[i].ComponentName = desc.Name
		e.logger.Debug("type rendered from source text",
			"component", desc.Name, "member", diags[i].Member, "reason", diags[i].Detail)
	}
	return newComponentResult(desc, members), diags, nil
}

// firstSyntaxError returns the position of the first error or missing node.
func firstSyntaxError(n *ts.Node) (row, col uint) {
	if n.IsError() || n.IsMissing() {
		p := n.StartPosition()
		return p.Row, p.Column
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && (c.HasError() || c.IsMissing()) {
			return firstSyntaxError(c)
		}
	}
	p := n.StartPosition()
	return p.Row, p.Column
}

type outcome struct {
	idx    int
	result *ComponentResult
	diags  []Diagnostic
	err    error
}

// Run extracts every component of a library.
//
// root must be an accessible directory; otherwise ErrLibraryRootUnavailable
// is returned before any component is read. Relative source paths resolve
// against root. Components are processed by a bounded worker pool; a
// component that fails is recorded in Failures and never stops the others.
// Results, index entries and diagnostics come back in descs order.
//
// Cancelling ctx stops dispatching and returns ctx.Err().
func (e *Extractor) Run(ctx context.Context, root string, descs []ComponentDescriptor) (*RunResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLibraryRootUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrLibraryRootUnavailable, root)
	}

	start := time.Now()
	outcomes := e.runAll(ctx, root, descs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Workers finish in any order.
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].idx < outcomes[j].idx })

	res := &RunResult{
		Results:     []ComponentResult{},
		Failures:    []Failure{},
		Diagnostics: []Diagnostic{},
	}
	for _, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, toFailure(descs[o.idx], o.err))
			continue
		}
		res.Results = append(res.Results, *o.result)
		res.Diagnostics = append(res.Diagnostics, o.diags...)
	}
	res.Index = e.BuildIndex(res.Results)

	e.logger.Info("extraction complete",
		"components", len(res.Results),
		"failed", len(res.Failures),
		"diagnostics", len(res.Diagnostics),
		"ms", time.Since(start).Milliseconds())
	return res, nil
}

func (e *Extractor) runAll(ctx context.Context, root string, descs []ComponentDescriptor) []outcome {
	if len(descs) == 0 {
		return nil
	}
	workers := util.PoolSize(e.opts.Workers)
	if workers > len(descs) {
		workers = len(descs)
	}

	jobs := make(chan int, workers*2)
	results := make(chan outcome, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				desc := descs[i]
				if !filepath.IsAbs(desc.SourcePath) {
					desc.SourcePath = filepath.Join(root, desc.SourcePath)
				}
				r, diags, err := e.ExtractComponent(ctx, desc)
				results <- outcome{idx: i, result: r, diags: diags, err: err}
			}
		}()
	}

	go func() {
		defer func() {
			close(jobs)
			wg.Wait()
			close(results)
		}()
		for i := range descs {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	outcomes := make([]outcome, 0, len(descs))
	for o := range results {
		if o.err != nil {
			e.logger.Warn("component skipped", "component", descs[o.idx].Name, "error", o.err)
		} else {
			e.logger.Info("component extracted",
				"component", o.result.ComponentName,
				"props", len(o.result.Props),
				"events", len(o.result.Events))
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func toFailure(desc ComponentDescriptor, err error) Failure {
	var ce *ComponentError
	if errors.As(err, &ce) {
		return ce.Failure()
	}
	return Failure{ComponentName: desc.Name, SourcePath: desc.SourcePath, Kind: FailureParse, Reason: err.Error()}
}

// BuildIndex summarizes results, keeping their order.
func (e *Extractor) BuildIndex(results []ComponentResult) LibraryIndex {
	summaries := make([]ComponentSummary, 0, len(results))
	for i := range results {
		summaries = append(summaries, results[i].Summary(e.opts.FileName(results[i].ComponentName)))
	}
	return LibraryIndex{
		Description:     e.opts.IndexDescription,
		Version:         e.opts.IndexVersion,
		ExtractionDate:  e.opts.Now().UTC(),
		RunID:           e.opts.NewRunID(),
		TotalComponents: len(results),
		Components:      summaries,
	}
}
