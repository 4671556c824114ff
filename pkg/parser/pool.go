package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool hands out tree-sitter parsers bound to one grammar.
//
// Design:
// - Idle parsers wait in a buffered channel of capacity size
// - Parsers are created lazily, never more than size per pool
// - Every parser in a pool uses the pool's dialect grammar
//
// Thread Safety:
// - acquire and release may be called from any goroutine
// - mu guards parser creation and the created counter
type parserPool struct {
	// dialect is used for error messages and logging
	dialect Dialect

	// grammar is the tree-sitter language pointer handed to new parsers
	grammar unsafe.Pointer

	// size caps the number of parsers this pool will create
	size int

	logger *slog.Logger

	// idle holds released parsers ready for reuse
	idle chan *ts.Parser

	mu      sync.Mutex
	created int
}

// newParserPool creates an empty pool. No parser exists until the first
// acquire.
func newParserPool(d Dialect, grammar unsafe.Pointer, size int, logger *slog.Logger) *parserPool {
	return &parserPool{
		dialect: d,
		grammar: grammar,
		size:    size,
		logger:  logger,
		idle:    make(chan *ts.Parser, size),
	}
}

// acquire returns an idle parser, creating one if the pool has room.
//
// Thread Safety:
// - Safe for concurrent use
// - Blocks when size parsers exist and none is idle
func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.idle:
		return parser, nil
	default:
	}

	p.mu.Lock()
	if p.created >= p.size {
		p.mu.Unlock()
		// Pool is full; wait for a release.
		return <-p.idle, nil
	}

	parser := ts.NewParser()
	if parser == nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("create %s parser", p.dialect)
	}
	if err := parser.SetLanguage(ts.NewLanguage(p.grammar)); err != nil {
		parser.Close()
		p.mu.Unlock()
		return nil, fmt.Errorf("set %s grammar: %w", p.dialect, err)
	}
	p.created++
	n := p.created
	p.mu.Unlock()

	p.logger.Debug("parser created", "dialect", p.dialect.String(), "pool_size", n)
	return parser, nil
}

// release puts parser back for reuse. It never blocks.
func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.idle <- parser:
	default:
		// More releases than acquires; drop the extra parser.
		parser.Close()
		p.logger.Warn("parser pool overflow", "dialect", p.dialect.String())
	}
}

// close frees every idle parser and reports how many were freed. Parsers
// still acquired are not freed. The pool is unusable afterwards.
func (p *parserPool) close() int {
	close(p.idle)
	n := 0
	for parser := range p.idle {
		parser.Close()
		n++
	}
	return n
}

// createdCount returns how many parsers this pool has created.
func (p *parserPool) createdCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
