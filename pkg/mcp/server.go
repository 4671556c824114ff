// Package mcp serves extracted component metadata to MCP clients over stdio.
package mcp

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/propscan/pkg/output"
)

const (
	serverName    = "propscan"
	serverVersion = "0.1.0-dev"

	// DefaultCacheSize bounds the number of rendered get_component responses.
	DefaultCacheSize = 256
)

// Server exposes a loaded component library as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	calls     *CallLog // nil disables call logging
	logger    *slog.Logger

	mu  sync.RWMutex
	lib *output.Library

	// cache holds get_component JSON keyed by component name. It is purged
	// whenever the library is replaced.
	cache       *lru.Cache[string, string]
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// Stats reports response cache usage.
type Stats struct {
	Components  int
	Cached      int
	CacheHits   int64
	CacheMisses int64
}

// NewServer creates a server over lib. calls may be nil.
func NewServer(lib *output.Library, calls *CallLog, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.NewWithEvict(DefaultCacheSize, func(name string, _ string) {
		logger.Debug("evicting cached component", "component", name)
	})
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}

	s := &Server{lib: lib, calls: calls, logger: logger, cache: cache}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if calls != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer(serverName, serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: listComponentsTool(), Handler: s.handleListComponents},
		server.ServerTool{Tool: getComponentTool(), Handler: s.handleGetComponent},
		server.ServerTool{Tool: getIndexTool(), Handler: s.handleGetIndex},
		server.ServerTool{Tool: searchPropsTool(), Handler: s.handleSearchProps},
	)

	logger.Info("mcp server ready", "components", len(lib.Components))
	return s, nil
}

// SetLibrary swaps in a freshly extracted library and drops cached responses.
func (s *Server) SetLibrary(lib *output.Library) {
	s.mu.Lock()
	s.lib = lib
	s.cache.Purge()
	s.mu.Unlock()
	s.logger.Info("library reloaded", "components", len(lib.Components), "run_id", lib.Index.RunID)
}

func (s *Server) library() *output.Library {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lib
}

// Stats returns current cache statistics.
func (s *Server) Stats() Stats {
	return Stats{
		Components:  len(s.library().Components),
		Cached:      s.cache.Len(),
		CacheHits:   s.cacheHits.Load(),
		CacheMisses: s.cacheMisses.Load(),
	}
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
