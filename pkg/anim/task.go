package anim

import (
	"bytes"
	"fmt"
	"image/color"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

// Task is a self-contained unit of work for one frame.
type Task struct {
	Index       int
	Last        bool
	Delay       int // milliseconds
	Transparent *color.RGBA
	Width       int
	Height      int
	Quality     int
	Dither      bool
	Palette     SharedPalette
	Repeat      int
	CanTransfer bool
	PageSize    int
	Pixels      []byte
}

// TaskResult is a worker's answer for one frame: the encoded segment split
// into pages. Every page but the last is PageSize bytes; the last one holds
// Cursor bytes.
type TaskResult struct {
	Index    int
	Pages    [][]byte
	Cursor   int
	PageSize int

	// Palette is set by the frame that analysed the shared palette.
	Palette color.Palette

	// Err reports a worker-side failure; the other fields are then unset.
	Err error
}

// Len returns the number of encoded bytes the result contributes.
func (r *TaskResult) Len() int {
	if len(r.Pages) == 0 {
		return 0
	}
	return (len(r.Pages)-1)*r.PageSize + r.Cursor
}

// BuildTask turns a frame into a task, reading its pixels first if they
// have not been read yet.
func BuildTask(f *Frame, index int, last bool, opts Options) (Task, error) {
	pixels, err := materialize(f, opts)
	if err != nil {
		return Task{}, fmt.Errorf("frame %d: %w", index, err)
	}
	if want := opts.Width * opts.Height * 4; len(pixels) != want {
		return Task{}, fmt.Errorf("frame %d: %w: got %d bytes, want %d",
			index, gwerrors.ErrPixelBufferSize, len(pixels), want)
	}
	if !opts.CanTransfer {
		pixels = bytes.Clone(pixels)
	}

	transparent := f.Transparent
	if transparent == nil {
		transparent = opts.Transparent
	}

	return Task{
		Index:       index,
		Last:        last,
		Delay:       f.Delay,
		Transparent: transparent,
		Width:       opts.Width,
		Height:      opts.Height,
		Quality:     opts.Quality,
		Dither:      opts.Dither,
		Palette:     opts.Palette,
		Repeat:      opts.Repeat,
		CanTransfer: opts.CanTransfer,
		PageSize:    opts.PageSize,
		Pixels:      pixels,
	}, nil
}
