package codec

import "io"

// PageWriter accumulates output in fixed-size pages. Every page but the
// last is full; Cursor is the number of bytes used in the last one.
type PageWriter struct {
	pageSize int
	pages    [][]byte
	cursor   int
}

var (
	_ io.Writer     = (*PageWriter)(nil)
	_ io.ByteWriter = (*PageWriter)(nil)
)

// NewPageWriter creates an empty writer with pages of pageSize bytes.
func NewPageWriter(pageSize int) *PageWriter {
	if pageSize <= 0 {
		pageSize = 4096
	}
	return &PageWriter{pageSize: pageSize}
}

func (w *PageWriter) grow() {
	w.pages = append(w.pages, make([]byte, w.pageSize))
	w.cursor = 0
}

// WriteByte appends one byte.
func (w *PageWriter) WriteByte(b byte) error {
	if len(w.pages) == 0 || w.cursor == w.pageSize {
		w.grow()
	}
	w.pages[len(w.pages)-1][w.cursor] = b
	w.cursor++
	return nil
}

// Write appends p, spilling into new pages as needed.
func (w *PageWriter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		if len(w.pages) == 0 || w.cursor == w.pageSize {
			w.grow()
		}
		c := copy(w.pages[len(w.pages)-1][w.cursor:], p)
		w.cursor += c
		p = p[c:]
	}
	return n, nil
}

func (w *PageWriter) writeUint16(v uint16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}

// Pages returns the pages written so far. The last page is only valid up
// to Cursor.
func (w *PageWriter) Pages() [][]byte {
	return w.pages
}

// Cursor returns the number of bytes used in the last page.
func (w *PageWriter) Cursor() int {
	return w.cursor
}

// PageSize returns the page size.
func (w *PageWriter) PageSize() int {
	return w.pageSize
}

// Len returns the total number of bytes written.
func (w *PageWriter) Len() int {
	if len(w.pages) == 0 {
		return 0
	}
	return (len(w.pages)-1)*w.pageSize + w.cursor
}

// Bytes returns a contiguous copy of the written bytes.
func (w *PageWriter) Bytes() []byte {
	out := make([]byte, 0, w.Len())
	for i, page := range w.pages {
		if i == len(w.pages)-1 {
			page = page[:w.cursor]
		}
		out = append(out, page...)
	}
	return out
}
