package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propscan/pkg/util"
)

func readRecords(t *testing.T, data []byte) []CallRecord {
	t.Helper()
	var recs []CallRecord
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if sc.Text() == "" {
			continue
		}
		var r CallRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), "torn line %q", sc.Text())
		recs = append(recs, r)
	}
	return recs
}

func TestRedactArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]any
		wantKeys []string
		wantSkip []string
	}{
		{name: "nil map returns empty", input: nil},
		{name: "short string passes through", input: map[string]any{"name": "Button"}, wantKeys: []string{"name"}},
		{
			name:     "long string replaced with _len key",
			input:    map[string]any{"query": strings.Repeat("x", 200)},
			wantKeys: []string{"query_len"},
			wantSkip: []string{"query"},
		},
		{name: "non-strings pass through", input: map[string]any{"n": 3, "b": true}, wantKeys: []string{"n", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := redactArgs(tt.input)
			assert.NotNil(t, out)
			for _, k := range tt.wantKeys {
				assert.Contains(t, out, k)
			}
			for _, k := range tt.wantSkip {
				assert.NotContains(t, out, k)
			}
		})
	}
	assert.Equal(t, 200, redactArgs(map[string]any{"q": strings.Repeat("x", 200)})["q_len"])
}

func TestResponseBytes(t *testing.T) {
	assert.Zero(t, responseBytes(nil))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	calls := NewCallLog(&buf)
	calls.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }

	s, err := NewServer(testLibrary(), calls, util.DiscardLogger())
	require.NoError(t, err)

	wrapped := s.loggingMiddleware()(s.handleGetComponent)
	_, err = wrapped(context.Background(), makeRequest("get_component", map[string]any{"name": "Button"}))
	require.NoError(t, err)
	_, err = wrapped(context.Background(), makeRequest("get_component", map[string]any{"name": "Nope"}))
	require.NoError(t, err)

	recs := readRecords(t, buf.Bytes())
	require.Len(t, recs, 2)

	assert.Equal(t, "get_component", recs[0].Tool)
	assert.Equal(t, "Button", recs[0].Args["name"])
	assert.Greater(t, recs[0].ResponseBytes, 0)
	assert.False(t, recs[0].IsError)
	assert.True(t, recs[0].Time.Equal(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)))

	assert.True(t, recs[1].IsError)
	assert.Empty(t, recs[1].Error)
}

func TestOpenCallLog(t *testing.T) {
	t.Run("empty path disables", func(t *testing.T) {
		l, err := OpenCallLog("")
		require.NoError(t, err)
		assert.Nil(t, l)
	})

	t.Run("creates directory and appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "calls.jsonl")
		for i := 0; i < 2; i++ {
			l, err := OpenCallLog(path)
			require.NoError(t, err)
			require.NoError(t, l.Write(CallRecord{Tool: "get_index"}))
			require.NoError(t, l.Close())
		}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, readRecords(t, data), 2)
	})
}

func TestCallLogConcurrency(t *testing.T) {
	var buf bytes.Buffer
	l := NewCallLog(&buf)

	const goroutines = 50
	const writesEach = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < writesEach; j++ {
				_ = l.Write(CallRecord{Tool: "list_components"})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, l.Close())

	assert.Len(t, readRecords(t, buf.Bytes()), goroutines*writesEach)
}
