// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/hops/internal/core/ports"
)

// Tracer implements ports.Tracer on top of a progrock recorder. Each span
// becomes a vertex on the tape; span output lands on the vertex's stdout, so
// per-node logs stay separated even with concurrent workers.
type Tracer struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Tracer recording onto a fresh tape.
func New() *Tracer {
	return NewTracer(progrock.NewTape())
}

// NewTracer creates a Tracer recording onto the given writer.
func NewTracer(w progrock.Writer) *Tracer {
	return &Tracer{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Start begins a vertex for the named unit of work.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := t.rec.Vertex(digest.FromString(name), name)
	return ctx, &Span{vertex: v}
}

// EmitPlan records the planned node names as a single annotation vertex.
func (t *Tracer) EmitPlan(_ context.Context, names []string) {
	v := t.rec.Vertex(digest.FromString("plan"), "plan")
	_, _ = fmt.Fprintln(v.Stdout(), strings.Join(names, " "))
	v.Done(nil)
}

// Close flushes and closes the recording session.
func (t *Tracer) Close() error {
	if c, ok := t.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Span wraps a progrock vertex recorder.
type Span struct {
	vertex *progrock.VertexRecorder
	err    error
}

// Write appends to the vertex's stdout stream.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}

// RecordError marks the vertex's eventual outcome as failed.
func (s *Span) RecordError(err error) {
	s.err = err
}

// SetAttribute records a key-value pair on the vertex's output stream.
func (s *Span) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(s.vertex.Stdout(), "%s=%v\n", key, value)
}

// End completes the vertex with the recorded outcome.
func (s *Span) End() {
	s.vertex.Done(s.err)
}
