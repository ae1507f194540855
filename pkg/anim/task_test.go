package anim

import (
	"image"
	"image/color"
	"testing"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTask_Pixels(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 2, 1
	red := color.RGBA{R: 0xff, A: 0xff}
	opts.Transparent = &red

	pix := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	f, _, err := newFrame(PixelBuffer{Pix: pix, Width: 2, Height: 1}, FrameOptions{Delay: 40}, opts)
	require.NoError(t, err)

	task, err := BuildTask(f, 3, true, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, task.Index)
	assert.True(t, task.Last)
	assert.Equal(t, 40, task.Delay)
	assert.Equal(t, &red, task.Transparent)
	assert.Equal(t, DefaultPageSize, task.PageSize)
	assert.Equal(t, pix, task.Pixels)

	task.Pixels[0] = 99
	assert.Equal(t, byte(1), pix[0], "task owns a copy")

	opts.CanTransfer = true
	task, err = BuildTask(f, 3, true, opts)
	require.NoError(t, err)
	task.Pixels[0] = 99
	assert.Equal(t, byte(99), pix[0], "transferred buffers are shared")
}

func TestBuildTask_WrongSize(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 4, 4

	f, _, err := newFrame(PixelBuffer{Pix: make([]byte, 8), Width: 2, Height: 1}, FrameOptions{}, opts)
	require.NoError(t, err)

	_, err = BuildTask(f, 0, false, opts)
	assert.ErrorIs(t, err, gwerrors.ErrPixelBufferSize)
}

func TestBuildTask_Drawable(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 4, 4

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Pix[0], img.Pix[1], img.Pix[2] = 0, 0, 0

	f, bounds, err := newFrame(img, FrameOptions{}, opts)
	require.NoError(t, err)
	assert.Equal(t, SourceDrawable, f.Kind())
	assert.Equal(t, image.Rect(0, 0, 2, 2), bounds)
	assert.False(t, f.Materialized())

	task, err := BuildTask(f, 0, false, opts)
	require.NoError(t, err)
	assert.True(t, f.Materialized())
	require.Len(t, task.Pixels, 4*4*4)

	assert.Equal(t, []byte{0, 0, 0, 0xff}, task.Pixels[0:4], "drawn pixel")
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, task.Pixels[4*4*4-4:], "background")
}

func TestBuildTask_Context(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 2, 2

	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.RGBA{G: 0xff, A: 0xff})

	f, _, err := newFrame(ImageContext{Image: img}, FrameOptions{}, opts)
	require.NoError(t, err)
	assert.Equal(t, SourceContext, f.Kind())

	task, err := BuildTask(f, 0, false, opts)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0xff, 0, 0xff}, task.Pixels[12:16])
}

func TestParseColorAndResample(t *testing.T) {
	c, err := ParseColor("#0f8")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 0xff, B: 0x88, A: 0xff}, c)

	_, err = ParseColor("blue")
	assert.Error(t, err)

	r, err := ParseResample("catmull-rom")
	require.NoError(t, err)
	assert.Equal(t, ResampleCatmullRom, r)
	r, err = ParseResample("Lanczos3")
	require.NoError(t, err)
	assert.Equal(t, ResampleLanczos, r)
	_, err = ParseResample("sinc")
	assert.Error(t, err)
}

func TestBuildTask_ScaledDrawable(t *testing.T) {
	blue := color.RGBA{B: 0xff, A: 0xff}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, blue)
		}
	}

	for _, r := range []Resample{ResampleBiLinear, ResampleMitchell, ResampleLanczos} {
		t.Run(r.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Width, opts.Height = 6, 6
			opts.Resample = r

			f, _, err := newFrame(img, FrameOptions{}, opts)
			require.NoError(t, err)
			task, err := BuildTask(f, 0, false, opts)
			require.NoError(t, err)
			require.Len(t, task.Pixels, 6*6*4)

			// Every pixel is covered by the scaled image, corners included.
			for _, off := range []int{0, (3*6 + 3) * 4, len(task.Pixels) - 4} {
				px := task.Pixels[off : off+4]
				assert.InDelta(t, 0, px[0], 2)
				assert.InDelta(t, 0xff, px[2], 2)
				assert.InDelta(t, 0xff, px[3], 2)
			}
		})
	}
}
