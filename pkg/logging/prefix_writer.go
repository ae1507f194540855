package logging

import (
	"bytes"
	"io"
	"sync"
)

// PrefixWriter prepends a prefix to every complete line written through it.
// A trailing partial line is held back until its newline arrives or Flush
// is called. It is safe for concurrent use.
type PrefixWriter struct {
	mu      sync.Mutex
	prefix  []byte
	writer  io.Writer
	pending bytes.Buffer
}

// NewPrefixWriter wraps w.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{prefix: []byte(prefix), writer: w}
}

// Write implements io.Writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.pending.Write(p)
	for {
		i := bytes.IndexByte(pw.pending.Bytes(), '\n')
		if i < 0 {
			break
		}
		if err := pw.emit(pw.pending.Next(i + 1)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes out a held partial line, if any.
func (pw *PrefixWriter) Flush() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.pending.Len() == 0 {
		return nil
	}
	line := pw.pending.Next(pw.pending.Len())
	return pw.emit(line)
}

func (pw *PrefixWriter) emit(line []byte) error {
	out := make([]byte, 0, len(pw.prefix)+len(line))
	out = append(out, pw.prefix...)
	out = append(out, line...)
	_, err := pw.writer.Write(out)
	return err
}
