// Package coretest provides a recording SignalConnection for tests.
package coretest

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/DocRelay/internal/core"
)

// Recorder keeps every frame it is sent.
type Recorder struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Envelopes decodes everything received so far.
func (r *Recorder) Envelopes(t *testing.T) []core.Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Envelope, 0, len(r.frames))
	for _, f := range r.frames {
		var env core.Envelope
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("recorder: bad frame %s: %v", f, err)
		}
		out = append(out, env)
	}
	return out
}

// OfType returns the payloads of received envelopes with the given type.
func (r *Recorder) OfType(t *testing.T, event string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, env := range r.Envelopes(t) {
		if env.Type == event {
			out = append(out, env.Data)
		}
	}
	return out
}

// Reset forgets everything received so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}
