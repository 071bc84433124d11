// Package testutil holds helpers shared by package tests: a slog handler
// that captures records, and builders for voter and vote fixture files.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log call
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record in memory. Handlers
// derived with WithAttrs share the record list.
type LogCapture struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewTestLogger returns a logger whose output is captured at every level
func NewTestLogger() (*slog.Logger, *LogCapture) {
	c := &LogCapture{mu: &sync.Mutex{}, records: &[]LogRecord{}}
	return slog.New(c), c
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(c.attrs)+r.NumAttrs())
	for _, a := range c.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	*c.records = append(*c.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	c.mu.Unlock()
	return nil
}

func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, c.attrs...), attrs...)
	return &LogCapture{mu: c.mu, records: c.records, attrs: merged}
}

// WithGroup is a no-op; tests match on flat attribute keys.
func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Records returns a copy of everything captured so far
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogRecord, len(*c.records))
	copy(out, *c.records)
	return out
}

// Count returns how many records at level contain message
func (c *LogCapture) Count(level slog.Level, message string) int {
	n := 0
	for _, r := range c.Records() {
		if r.Level == level && strings.Contains(r.Message, message) {
			n++
		}
	}
	return n
}

// Find returns the first record at level containing message
func (c *LogCapture) Find(level slog.Level, message string) (LogRecord, bool) {
	for _, r := range c.Records() {
		if r.Level == level && strings.Contains(r.Message, message) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// AssertLogged fails the test unless a record at level contains message
func AssertLogged(t *testing.T, c *LogCapture, level slog.Level, message string) {
	t.Helper()
	if c.Count(level, message) > 0 {
		return
	}
	t.Errorf("expected %s log containing %q", level, message)
	for _, r := range c.Records() {
		t.Logf("  [%s] %s %v", r.Level, r.Message, r.Attrs)
	}
}
