package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrClosed is returned by Emit once the underlying connection has failed.
var ErrClosed = errors.New("stream: closed")

// Emitter is what the orchestrator writes session events to.
type Emitter interface {
	Emit(ev Event) error
}

// Writer serializes events as SSE records and flushes each one.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	onClose func()
	err     error
}

// NewWriter wraps w. flusher may be nil when w buffers nothing. onClose, if
// non-nil, runs once after the first failed write.
func NewWriter(w io.Writer, flusher http.Flusher, onClose func()) *Writer {
	return &Writer{w: w, flusher: flusher, onClose: onClose}
}

// PrepareHeaders sets the response headers for an event stream.
func PrepareHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Emit writes one event. After a failure every call returns ErrClosed.
func (w *Writer) Emit(ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: marshal %s event: %w", ev.Type, err)
	}
	return w.write("data: " + string(b) + "\n\n")
}

// Ping writes an SSE comment line, which clients ignore.
func (w *Writer) Ping() error {
	return w.write(": keepalive\n\n")
}

// Err returns the write error that closed the writer, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// KeepAlive pings every interval until ctx is done or the writer closes.
func (w *Writer) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Ping(); err != nil {
				return
			}
		}
	}
}

// flushErrorer is implemented by net/http's response writer and reports
// flushes to a dead connection, which Flush alone hides.
type flushErrorer interface {
	FlushError() error
}

func (w *Writer) flush() error {
	if fe, ok := w.flusher.(flushErrorer); ok {
		return fe.FlushError()
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

func (w *Writer) write(record string) error {
	w.mu.Lock()
	if w.err != nil {
		w.mu.Unlock()
		return ErrClosed
	}
	_, err := io.WriteString(w.w, record)
	if err == nil {
		err = w.flush()
	}
	if err == nil {
		w.mu.Unlock()
		return nil
	}
	w.err = err
	onClose := w.onClose
	w.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return fmt.Errorf("%w: %v", ErrClosed, err)
}
