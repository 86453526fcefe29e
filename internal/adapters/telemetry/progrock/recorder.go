// Package progrock records trace spans as Progrock vertices.
package progrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vito/progrock"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var _ sdktrace.SpanProcessor = (*Recorder)(nil)

// Recorder implements sdktrace.SpanProcessor. Each span becomes a vertex
// that completes when the span ends, with its attributes on the vertex
// output.
type Recorder struct {
	w        progrock.Writer
	rec      *progrock.Recorder
	vertices *xsync.MapOf[trace.SpanID, *progrock.VertexRecorder]
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:        w,
		rec:      progrock.NewRecorder(w),
		vertices: xsync.NewMapOf[trace.SpanID, *progrock.VertexRecorder](),
	}
}

// OnStart opens a vertex for the span.
func (r *Recorder) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	id := s.SpanContext().SpanID()
	if !id.IsValid() {
		return
	}
	v := r.rec.Vertex(digest.FromString(id.String()), s.Name())
	r.vertices.Store(id, v)
}

// OnEnd writes the span attributes to its vertex and completes it.
func (r *Recorder) OnEnd(s sdktrace.ReadOnlySpan) {
	v, ok := r.vertices.LoadAndDelete(s.SpanContext().SpanID())
	if !ok {
		return
	}

	for _, kv := range s.Attributes() {
		_, _ = fmt.Fprintf(v.Stdout(), "%s=%s\n", kv.Key, kv.Value.Emit())
	}

	var err error
	if s.Status().Code == codes.Error {
		err = errors.New(s.Status().Description)
	}
	v.Done(err)
}

// Open reports how many vertices are still running.
func (r *Recorder) Open() int {
	return r.vertices.Size()
}

// ForceFlush does nothing.
func (r *Recorder) ForceFlush(context.Context) error {
	return nil
}

// Shutdown completes any vertex still open and closes the recording.
func (r *Recorder) Shutdown(context.Context) error {
	r.vertices.Range(func(id trace.SpanID, v *progrock.VertexRecorder) bool {
		v.Done(context.Canceled)
		r.vertices.Delete(id)
		return true
	})
	return r.Close()
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
