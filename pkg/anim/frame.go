package anim

import (
	"fmt"
	"image"
	"image/color"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

// SourceKind identifies where a frame's pixels come from.
type SourceKind uint8

const (
	SourceUnknown SourceKind = iota
	SourcePixels             // flat RGBA buffer
	SourceContext            // pixel reader bound to a drawing surface
	SourceDrawable           // image composited onto the output canvas
)

func (k SourceKind) String() string {
	switch k {
	case SourcePixels:
		return "pixels"
	case SourceContext:
		return "context"
	case SourceDrawable:
		return "drawable"
	default:
		return "unknown"
	}
}

// PixelBuffer is a flat, row-major RGBA buffer of Width*Height*4 bytes.
type PixelBuffer struct {
	Pix    []byte
	Width  int
	Height int
}

// Context reads pixels back from a drawing surface.
type Context interface {
	Bounds() image.Rectangle
	// ImageData returns r as a flat RGBA buffer.
	ImageData(r image.Rectangle) []byte
}

// FrameOptions are the per-frame settings passed to AddFrame.
type FrameOptions struct {
	Delay       int         // milliseconds, DefaultDelay when zero
	Transparent *color.RGBA // overrides Options.Transparent
	Copy        bool        // read pixels now instead of at dispatch
}

// Frame is one enqueued image. Pixel data is materialized lazily unless
// the frame was added with Copy.
type Frame struct {
	Delay       int
	Transparent *color.RGBA
	Copy        bool

	kind     SourceKind
	data     []byte
	context  Context
	drawable image.Image
}

// Kind reports the frame's source kind.
func (f *Frame) Kind() SourceKind {
	return f.kind
}

// Materialized reports whether the frame's pixels have been read.
func (f *Frame) Materialized() bool {
	return f.data != nil
}

// forget drops pixels read from a context or drawable so the next task
// reads them again. Copied frames keep the pixels they were added with.
func (f *Frame) forget() {
	if f.Copy || f.kind == SourcePixels {
		return
	}
	f.data = nil
}

// canvasChanged reports whether materialized pixels depend on settings
// that differ between prev and next.
func canvasChanged(prev, next Options) bool {
	return prev.Width != next.Width ||
		prev.Height != next.Height ||
		prev.Background != next.Background ||
		prev.Resample != next.Resample
}

func newFrame(src any, fo FrameOptions, defaults Options) (*Frame, image.Rectangle, error) {
	frame := &Frame{
		Delay:       fo.Delay,
		Transparent: defaults.Transparent,
		Copy:        fo.Copy,
	}
	if frame.Delay <= 0 {
		frame.Delay = DefaultDelay
	}
	if fo.Transparent != nil {
		frame.Transparent = fo.Transparent
	}

	var bounds image.Rectangle
	switch s := src.(type) {
	case PixelBuffer:
		frame.kind = SourcePixels
		frame.data = s.Pix
		bounds = image.Rect(0, 0, s.Width, s.Height)
	case *PixelBuffer:
		if s == nil {
			return nil, bounds, gwerrors.ErrInvalidFrameSource
		}
		frame.kind = SourcePixels
		frame.data = s.Pix
		bounds = image.Rect(0, 0, s.Width, s.Height)
	case *image.RGBA:
		if s == nil {
			return nil, bounds, gwerrors.ErrInvalidFrameSource
		}
		frame.kind = SourcePixels
		frame.data = rgbaPixels(s)
		bounds = image.Rect(0, 0, s.Rect.Dx(), s.Rect.Dy())
	case Context:
		frame.kind = SourceContext
		frame.context = s
		bounds = s.Bounds()
	case image.Image:
		frame.kind = SourceDrawable
		frame.drawable = s
		bounds = s.Bounds()
	default:
		return nil, bounds, fmt.Errorf("%w: %T", gwerrors.ErrInvalidFrameSource, src)
	}

	if frame.kind == SourcePixels && frame.data == nil {
		return nil, bounds, fmt.Errorf("%w: empty pixel buffer", gwerrors.ErrInvalidFrameSource)
	}

	return frame, bounds, nil
}

// rgbaPixels returns the tightly packed pixels of m, sharing the backing
// array when the layout already matches.
func rgbaPixels(m *image.RGBA) []byte {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	if m.Stride == w*4 && len(m.Pix) >= w*h*4 {
		return m.Pix[:w*h*4]
	}

	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+w*4]
		copy(out[y*w*4:], row)
	}
	return out
}
