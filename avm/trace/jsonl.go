package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
)

// Tracer receives one record per executed instruction.
type Tracer interface {
	WriteStep(step *Step) error
}

// JSONLTraceWriter writes Step records as JSON Lines. It is safe for
// concurrent use, so a worker pool can share one writer.
type JSONLTraceWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	buf    *bufio.Writer
	closer io.Closer // set only when the writer owns the file
	closed bool
}

// ErrTraceWriterClosed is returned when WriteStep is called after Close.
var ErrTraceWriterClosed = errors.New("jsonl trace writer is closed")

func newWriter(w io.Writer, size int, closer io.Closer) *JSONLTraceWriter {
	buf := bufio.NewWriterSize(w, size)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLTraceWriter{enc: enc, buf: buf, closer: closer}
}

// NewJSONLTraceWriter wraps w. Close flushes but does not close w.
func NewJSONLTraceWriter(w io.Writer) *JSONLTraceWriter {
	return newWriter(w, 64*1024, nil)
}

// NewJSONLTraceWriterFile creates (or truncates) path. Close closes the file.
// The path "-" means stdout.
func NewJSONLTraceWriterFile(path string) (*JSONLTraceWriter, error) {
	if path == "-" {
		return newWriter(os.Stdout, 4*1024, nil), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return newWriter(f, 64*1024, f), nil
}

func (w *JSONLTraceWriter) WriteStep(step *Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrTraceWriterClosed
	}
	return w.enc.Encode(step)
}

// Flush forces buffered data to be written to the underlying writer.
func (w *JSONLTraceWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrTraceWriterClosed
	}
	return w.buf.Flush()
}

// Close flushes and, for file writers, closes the file. It is idempotent.
func (w *JSONLTraceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.buf.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
