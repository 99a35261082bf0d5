package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// TraceEntry is one provider round trip as written to the trace file.
// Bodies are recorded as sent; credentials travel in headers and are never
// part of an entry.
type TraceEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Driver      string          `json:"driver"`
	Endpoint    string          `json:"endpoint,omitempty"`
	Method      string          `json:"method,omitempty"`
	Model       string          `json:"model,omitempty"`
	PromptSlug  string          `json:"prompt_slug,omitempty"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	StatusCode  int             `json:"status_code,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

// traceSink serializes entries as NDJSON onto one writer.
type traceSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	out io.Closer
}

var activeSink atomic.Pointer[traceSink]

// EnableTracing appends every subsequent provider call to path. The
// returned func stops tracing. Enabling again replaces the previous sink.
func EnableTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	if previous := activeSink.Swap(&traceSink{enc: json.NewEncoder(f), out: f}); previous != nil {
		previous.close()
	}
	return DisableTracing, nil
}

// DisableTracing stops tracing and closes the trace file.
func DisableTracing() {
	if sink := activeSink.Swap(nil); sink != nil {
		sink.close()
	}
}

func IsTracingEnabled() bool {
	return activeSink.Load() != nil
}

// Trace records entry when tracing is enabled. Write failures are dropped.
func Trace(entry TraceEntry) {
	sink := activeSink.Load()
	if sink == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.enc != nil {
		_ = sink.enc.Encode(entry)
	}
}

func (s *traceSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enc = nil
	_ = s.out.Close()
}
