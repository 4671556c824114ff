// Package parser owns the tree-sitter grammars and a pool of parsers per
// grammar so that component sources can be parsed from many goroutines.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/propscan/pkg/util"
)

// ErrUnsupportedDialect is returned for files no bundled grammar can parse.
var ErrUnsupportedDialect = errors.New("unsupported source dialect")

// ParserManager parses source text with lazily created, per-dialect parser
// pools.
//
// Memory Management:
// - A pool is created on the first parse of its dialect
// - The manager owns its pools and must be closed once all parsing is done
// - Callers own the returned trees and must Close them
//
// Thread Safety:
// - Any number of goroutines may parse at once, including the same dialect
// - Pool creation is serialized under the write lock
// - Each pool holds at most poolSize parsers
//
//	pm := parser.NewParserManager(logger)
//	defer pm.Close()
//
//	tree, err := pm.ParseFile(src, "Button/Button.d.ts")
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	// mu guards pools
	mu sync.RWMutex

	// pools holds one parser pool per dialect, created on first use
	pools map[Dialect]*parserPool

	poolSize int
	logger   *slog.Logger

	// parses counts Parse calls for Stats
	parses atomic.Int64
}

// NewParserManager creates a manager whose pools hold up to
// util.GetOptimalPoolSize parsers each.
func NewParserManager(logger *slog.Logger) *ParserManager {
	return NewParserManagerWithPoolSize(logger, 0)
}

// NewParserManagerWithPoolSize creates a manager with a fixed pool size per
// dialect. A size of zero or less selects the CPU based default.
func NewParserManagerWithPoolSize(logger *slog.Logger, size int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:    make(map[Dialect]*parserPool),
		poolSize: util.PoolSize(size),
		logger:   logger,
	}
}

// Parse parses source with the grammar for d.
//
// A tree is returned even when it contains syntax errors; callers decide
// whether a partial tree is acceptable by checking RootNode().HasError().
func (pm *ParserManager) Parse(source []byte, d Dialect) (*ts.Tree, error) {
	if !d.Supported() {
		return nil, ErrUnsupportedDialect
	}
	pm.parses.Add(1)

	pool, err := pm.pool(d)
	if err != nil {
		return nil, err
	}
	p, err := pool.acquire()
	if err != nil {
		return nil, err
	}
	tree := p.Parse(source, nil)
	pool.release(p)

	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", d)
	}
	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "dialect", d.String())
	}
	return tree, nil
}

// ParseFile parses source using the dialect implied by path's extension.
func (pm *ParserManager) ParseFile(source []byte, path string) (*ts.Tree, error) {
	d := DialectFor(path)
	if !d.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, path)
	}
	return pm.Parse(source, d)
}

// Grammar returns the raw tree-sitter language pointer for d. Queries must be
// compiled against the same grammar the tree was parsed with.
func (pm *ParserManager) Grammar(d Dialect) (unsafe.Pointer, error) {
	switch {
	case d.Lang == LanguageTypeScript && d.JSX:
		return ts_typescript.LanguageTSX(), nil
	case d.Lang == LanguageTypeScript:
		return ts_typescript.LanguageTypescript(), nil
	case d.Lang == LanguageJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, ErrUnsupportedDialect
	}
}

// pool returns the pool for d, creating it under the write lock with a
// second lookup in case another goroutine won the race.
func (pm *ParserManager) pool(d Dialect) (*parserPool, error) {
	pm.mu.RLock()
	pool, ok := pm.pools[d]
	pm.mu.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pool, ok = pm.pools[d]; ok {
		return pool, nil
	}
	grammar, err := pm.Grammar(d)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(d, grammar, pm.poolSize, pm.logger)
	pm.pools[d] = pool
	pm.logger.Debug("parser pool created", "dialect", d.String(), "max_size", pm.poolSize)
	return pool, nil
}

// Stats reports parser usage.
func (pm *ParserManager) Stats() ParserStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	created := 0
	for _, pool := range pm.pools {
		created += pool.createdCount()
	}
	return ParserStats{
		ParsersCreated: created,
		ParsesCalled:   int(pm.parses.Load()),
		Dialects:       len(pm.pools),
	}
}

// ParserStats contains parser usage counters.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
	Dialects       int
}

// Close releases every pooled parser. The manager must not be used afterwards.
func (pm *ParserManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	closed := 0
	for d, pool := range pm.pools {
		closed += pool.close()
		delete(pm.pools, d)
	}
	pm.logger.Debug("parser manager closed", "parsers_closed", closed, "parses", pm.parses.Load())
	return nil
}
