package anim

import (
	"fmt"
	"image"
	"strings"

	"github.com/nfnt/resize"
	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"golang.org/x/image/draw"
)

// Resample selects how a drawable is fitted onto the output canvas.
type Resample uint8

const (
	// ResampleNone draws the image at its natural size at the origin.
	ResampleNone Resample = iota
	ResampleNearest
	ResampleApproxBiLinear
	ResampleBiLinear
	ResampleCatmullRom
	ResampleMitchell
	ResampleLanczos
)

func (r Resample) String() string {
	switch r {
	case ResampleNone:
		return "none"
	case ResampleNearest:
		return "nearest"
	case ResampleApproxBiLinear:
		return "approx-bilinear"
	case ResampleBiLinear:
		return "bilinear"
	case ResampleCatmullRom:
		return "catmull-rom"
	case ResampleMitchell:
		return "mitchell"
	case ResampleLanczos:
		return "lanczos"
	default:
		return "unknown"
	}
}

// ParseResample maps a resample name to its value.
func ParseResample(s string) (Resample, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ResampleNone, nil
	case "nearest":
		return ResampleNearest, nil
	case "approx-bilinear", "approxbilinear":
		return ResampleApproxBiLinear, nil
	case "bilinear":
		return ResampleBiLinear, nil
	case "catmull-rom", "catmullrom":
		return ResampleCatmullRom, nil
	case "mitchell":
		return ResampleMitchell, nil
	case "lanczos", "lanczos3":
		return ResampleLanczos, nil
	default:
		return ResampleNone, fmt.Errorf("unknown resample mode %q", s)
	}
}

func (r Resample) interpolator() draw.Interpolator {
	switch r {
	case ResampleNearest:
		return draw.NearestNeighbor
	case ResampleApproxBiLinear:
		return draw.ApproxBiLinear
	case ResampleBiLinear:
		return draw.BiLinear
	case ResampleCatmullRom:
		return draw.CatmullRom
	default:
		return nil
	}
}

// filter returns the nfnt/resize kernel for modes x/image/draw lacks.
func (r Resample) filter() (resize.InterpolationFunction, bool) {
	switch r {
	case ResampleMitchell:
		return resize.MitchellNetravali, true
	case ResampleLanczos:
		return resize.Lanczos3, true
	default:
		return 0, false
	}
}

// ImageContext adapts an image to the Context interface.
type ImageContext struct {
	Image image.Image
}

// Bounds implements Context.
func (c ImageContext) Bounds() image.Rectangle {
	return c.Image.Bounds()
}

// ImageData implements Context. Pixels outside the image read as
// transparent black.
func (c ImageContext) ImageData(r image.Rectangle) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), c.Image, r.Min, draw.Src)
	return dst.Pix
}

// materialize reads a frame's pixels at the output size. Reading twice
// yields the same bytes.
func materialize(f *Frame, opts Options) ([]byte, error) {
	if f.data != nil {
		return f.data, nil
	}

	switch f.kind {
	case SourceContext:
		f.data = f.context.ImageData(image.Rect(0, 0, opts.Width, opts.Height))
	case SourceDrawable:
		f.data = drawOnCanvas(f.drawable, opts)
	case SourcePixels:
		return nil, gwerrors.ErrInvalidTaskSource
	default:
		return nil, fmt.Errorf("%w: %s", gwerrors.ErrInvalidFrameSource, f.kind)
	}

	return f.data, nil
}

// drawOnCanvas fills a canvas with the background colour and draws img over
// it, either at natural size or scaled to the canvas.
func drawOnCanvas(img image.Image, opts Options) []byte {
	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	src := img.Bounds()
	scale := src.Size() != canvas.Rect.Size()
	if interp := opts.Resample.interpolator(); interp != nil && scale {
		interp.Scale(canvas, canvas.Bounds(), img, src, draw.Over, nil)
	} else if filter, ok := opts.Resample.filter(); ok && scale {
		scaled := resize.Resize(uint(opts.Width), uint(opts.Height), img, filter)
		draw.Draw(canvas, canvas.Bounds(), scaled, scaled.Bounds().Min, draw.Over)
	} else {
		draw.Draw(canvas, image.Rect(0, 0, src.Dx(), src.Dy()), img, src.Min, draw.Over)
	}

	return canvas.Pix
}
