package codec

import (
	"bytes"
	"testing"
)

func TestPageWriter(t *testing.T) {
	tests := []struct {
		name      string
		pageSize  int
		n         int
		wantPages int
		wantCur   int
	}{
		{name: "empty", pageSize: 4, n: 0, wantPages: 0, wantCur: 0},
		{name: "partial page", pageSize: 4, n: 3, wantPages: 1, wantCur: 3},
		{name: "exactly full", pageSize: 4, n: 8, wantPages: 2, wantCur: 4},
		{name: "spill", pageSize: 4, n: 9, wantPages: 3, wantCur: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := make([]byte, tc.n)
			for i := range in {
				in[i] = byte(i + 1)
			}

			w := NewPageWriter(tc.pageSize)
			w.Write(in[:tc.n/2])
			for _, b := range in[tc.n/2:] {
				w.WriteByte(b)
			}

			if got := len(w.Pages()); got != tc.wantPages {
				t.Errorf("pages = %d, want %d", got, tc.wantPages)
			}
			if got := w.Cursor(); got != tc.wantCur {
				t.Errorf("cursor = %d, want %d", got, tc.wantCur)
			}
			if got := w.Len(); got != tc.n {
				t.Errorf("len = %d, want %d", got, tc.n)
			}
			if !bytes.Equal(w.Bytes(), in) {
				t.Errorf("bytes = %v, want %v", w.Bytes(), in)
			}
		})
	}
}

func TestQuantize(t *testing.T) {
	pix := []byte{
		255, 0, 0, 255,
		255, 0, 0, 255,
		0, 0, 255, 255,
		0, 0, 255, 255,
	}

	p := Quantize(pix, 1, 256)
	if len(p) != 2 {
		t.Fatalf("palette has %d colours, want 2", len(p))
	}

	if got := len(Quantize(pix, 1, 1)); got != 1 {
		t.Errorf("capped palette has %d colours, want 1", got)
	}

	if got := len(padPalette(p[:1])); got != 2 {
		t.Errorf("padded single colour to %d entries, want 2", got)
	}
	if got := tableBits(129); got != 8 {
		t.Errorf("tableBits(129) = %d, want 8", got)
	}
}
