package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CallRecord is one JSONL line of the call log.
type CallRecord struct {
	Time          time.Time      `json:"time"`
	Tool          string         `json:"tool"`
	Args          map[string]any `json:"args"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	IsError       bool           `json:"is_error"`
	Error         string         `json:"error,omitempty"`
}

// CallLog appends one CallRecord per tool call. Safe for concurrent use.
type CallLog struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	enc    *json.Encoder

	now func() time.Time
}

// NewCallLog writes records to w.
func NewCallLog(w io.Writer) *CallLog {
	return &CallLog{w: w, enc: json.NewEncoder(w), now: time.Now}
}

// OpenCallLog appends to the file at path, creating it and its parent
// directories. An empty path returns nil, which disables logging.
func OpenCallLog(path string) (*CallLog, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create call log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open call log: %w", err)
	}
	l := NewCallLog(f)
	l.closer = f
	return l, nil
}

// Write appends rec.
func (l *CallLog) Write(rec CallRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(rec)
}

// Close closes the underlying file, if the log owns one.
func (l *CallLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// maxLoggedString is the longest string argument logged verbatim.
const maxLoggedString = 64

// redactArgs copies args, replacing long strings with their length under
// "<key>_len".
func redactArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxLoggedString {
			out[k+"_len"] = len(s)
			continue
		}
		out[k] = v
	}
	return out
}

// responseBytes is the encoded size of a result's content.
func responseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// loggingMiddleware records every tool call in the server's call log. Log
// write failures never affect the call.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := s.calls.now()
			result, err := next(ctx, req)

			rec := CallRecord{
				Time:          start.UTC(),
				Tool:          req.Params.Name,
				Args:          redactArgs(req.GetArguments()),
				DurationMs:    time.Since(start).Milliseconds(),
				ResponseBytes: responseBytes(result),
				IsError:       result != nil && result.IsError,
			}
			if err != nil {
				rec.Error = err.Error()
			}
			if werr := s.calls.Write(rec); werr != nil {
				s.logger.Warn("call log write failed", "tool", rec.Tool, "error", werr)
			}
			return result, err
		}
	}
}
