package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/propscan/pkg/output"
)

// componentRow is one list_components entry.
type componentRow struct {
	Name        string `json:"name"`
	ImportPath  string `json:"import_path"`
	File        string `json:"file"`
	PropsCount  int    `json:"props_count"`
	EventsCount int    `json:"events_count"`
}

func (s *Server) handleListComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.ToLower(strings.TrimSpace(req.GetString("query", "")))

	rows := []componentRow{}
	for _, c := range s.library().Summaries() {
		if query != "" && !strings.Contains(strings.ToLower(c.ComponentName), query) {
			continue
		}
		rows = append(rows, componentRow{
			Name:        c.ComponentName,
			ImportPath:  c.ImportPath,
			File:        c.File,
			PropsCount:  c.PropsCount,
			EventsCount: c.EventsCount,
		})
	}
	return jsonResult(rows)
}

func (s *Server) handleGetComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// SetLibrary takes the write lock, so a response rendered from the old
	// library can never land in the purged cache.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if text, ok := s.cache.Get(name); ok {
		s.cacheHits.Add(1)
		return mcp.NewToolResultText(text), nil
	}
	s.cacheMisses.Add(1)

	c, err := s.lib.Component(name)
	if errors.Is(err, output.ErrNotFound) {
		return mcp.NewToolResultError("component not found: " + name), nil
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	text := string(data)
	s.cache.Add(name, text)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleGetIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.library().Index)
}

func (s *Server) handleSearchProps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}
	return jsonResult(s.library().SearchProps(query))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
