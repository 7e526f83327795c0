package logger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const defaultRecentSize = 1000

// LogEntry is a parsed log line kept for the logs endpoint.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// RecentLog is an io.Writer that keeps the last entries written by zerolog
// in a fixed-size ring.
type RecentLog struct {
	mu      sync.RWMutex
	entries []LogEntry
	head    int
	count   int
}

func NewRecentLog(size int) *RecentLog {
	if size <= 0 {
		size = defaultRecentSize
	}
	return &RecentLog{entries: make([]LogEntry, size)}
}

// Write parses one zerolog JSON line. Malformed lines are ignored.
func (r *RecentLog) Write(p []byte) (int, error) {
	entry, err := parseEntry(p)
	if err != nil {
		return len(p), nil //nolint:nilerr // never fail the logger over a bad line
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	tail := (r.head + r.count) % len(r.entries)
	r.entries[tail] = entry
	if r.count < len(r.entries) {
		r.count++
	} else {
		r.head = (r.head + 1) % len(r.entries)
	}
	return len(p), nil
}

// Entries returns the buffered entries from oldest to newest.
func (r *RecentLog) Entries() []LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LogEntry, r.count)
	for i := range r.count {
		out[i] = r.entries[(r.head+i)%len(r.entries)]
	}
	return out
}

// Handler serves the buffered entries.
// GET /api/v1/system/logs
func (r *RecentLog) Handler(c echo.Context) error {
	return c.JSON(http.StatusOK, r.Entries())
}

func parseEntry(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{
		Timestamp: stringField(raw, zerolog.TimestampFieldName),
		Level:     stringField(raw, zerolog.LevelFieldName),
		Component: stringField(raw, "component"),
		Message:   stringField(raw, zerolog.MessageFieldName),
	}
	for _, k := range []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, "component", zerolog.MessageFieldName} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, nil
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
