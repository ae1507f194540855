// Package codec encodes a single animation frame into its slice of a GIF89a
// stream. Frame 0 carries the file header and the last frame the trailer,
// so the slices of all frames concatenated in order form a complete file.
package codec

import (
	"bufio"
	"compress/lzw"
	"fmt"
	"image"
	"image/color"

	"github.com/provide-io/gifweave/pkg/anim"
	"golang.org/x/image/draw"
)

const (
	extensionIntroducer = 0x21
	imageSeparator      = 0x2C
	trailer             = 0x3B

	labelGraphicControl = 0xF9
	labelApplication    = 0xFF

	disposalNone    = 0
	disposalRestore = 2
)

// EncodeFrame encodes task and returns its segment as pages. When the task
// analyses the shared palette, the result carries that palette.
func EncodeFrame(task anim.Task) (anim.TaskResult, error) {
	if task.Width <= 0 || task.Height <= 0 || task.Width > 0xFFFF || task.Height > 0xFFFF {
		return anim.TaskResult{}, fmt.Errorf("frame %d: invalid size %dx%d", task.Index, task.Width, task.Height)
	}
	if len(task.Pixels) != task.Width*task.Height*4 {
		return anim.TaskResult{}, fmt.Errorf("frame %d: %d pixel bytes for %dx%d",
			task.Index, len(task.Pixels), task.Width, task.Height)
	}

	src := &image.RGBA{
		Pix:    task.Pixels,
		Stride: task.Width * 4,
		Rect:   image.Rect(0, 0, task.Width, task.Height),
	}
	// Alpha is not carried by GIF colour tables.
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xff
	}

	shared := task.Palette.Mode == anim.PaletteResolved && len(task.Palette.Palette) > 0

	var palette color.Palette
	if shared {
		palette = opaque(task.Palette.Palette)
	} else {
		palette = Quantize(src.Pix, task.Quality, MaxColors)
	}

	dst := image.NewPaletted(src.Rect, palette)
	if task.Dither {
		draw.FloydSteinberg.Draw(dst, dst.Rect, src, image.Point{})
	} else {
		draw.Draw(dst, dst.Rect, src, image.Point{}, draw.Src)
	}

	out := NewPageWriter(task.PageSize)
	bits := tableBits(len(palette))
	table := padPalette(palette)

	if task.Index == 0 {
		writeHeader(out, task, bits, table)
	}
	writeGraphicControl(out, task, palette)

	local := task.Index != 0 && !shared
	writeImageDescriptor(out, task, local, bits)
	if local {
		writeColorTable(out, table)
	}
	if err := writePixels(out, dst.Pix, bits); err != nil {
		return anim.TaskResult{}, fmt.Errorf("frame %d: %w", task.Index, err)
	}
	if task.Last {
		out.WriteByte(trailer)
	}

	res := anim.TaskResult{
		Index:    task.Index,
		Pages:    out.Pages(),
		Cursor:   out.Cursor(),
		PageSize: out.PageSize(),
	}
	if task.Palette.Mode == anim.PalettePending {
		res.Palette = palette
	}
	return res, nil
}

func opaque(p color.Palette) color.Palette {
	if len(p) > MaxColors {
		p = p[:MaxColors]
	}
	out := make(color.Palette, len(p))
	for i, c := range p {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		rgba.A = 0xff
		out[i] = rgba
	}
	return out
}

// writeHeader writes the signature, the logical screen descriptor with the
// frame's palette as global colour table and, for looping animations, the
// NETSCAPE2.0 application extension.
func writeHeader(w *PageWriter, task anim.Task, bits int, table color.Palette) {
	w.Write([]byte("GIF89a"))

	w.writeUint16(uint16(task.Width))
	w.writeUint16(uint16(task.Height))
	w.WriteByte(0x80 | 0x70 | byte(bits-1)) // global table, 8-bit resolution
	w.WriteByte(0)                          // background colour index
	w.WriteByte(0)                          // pixel aspect ratio

	writeColorTable(w, table)

	if task.Repeat >= 0 {
		w.WriteByte(extensionIntroducer)
		w.WriteByte(labelApplication)
		w.WriteByte(11)
		w.Write([]byte("NETSCAPE2.0"))
		w.WriteByte(3)
		w.WriteByte(1)
		w.writeUint16(uint16(task.Repeat))
		w.WriteByte(0)
	}
}

func writeGraphicControl(w *PageWriter, task anim.Task, palette color.Palette) {
	var flags, index byte
	disposal := disposalNone
	if task.Transparent != nil {
		flags = 1
		disposal = disposalRestore
		index = byte(palette.Index(*task.Transparent))
	}

	w.WriteByte(extensionIntroducer)
	w.WriteByte(labelGraphicControl)
	w.WriteByte(4)
	w.WriteByte(byte(disposal<<2) | flags)
	w.writeUint16(uint16((task.Delay + 5) / 10)) // centiseconds
	w.WriteByte(index)
	w.WriteByte(0)
}

func writeImageDescriptor(w *PageWriter, task anim.Task, local bool, bits int) {
	w.WriteByte(imageSeparator)
	w.writeUint16(0)
	w.writeUint16(0)
	w.writeUint16(uint16(task.Width))
	w.writeUint16(uint16(task.Height))
	if local {
		w.WriteByte(0x80 | byte(bits-1))
	} else {
		w.WriteByte(0)
	}
}

func writeColorTable(w *PageWriter, table color.Palette) {
	for _, c := range table {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		w.WriteByte(rgba.R)
		w.WriteByte(rgba.G)
		w.WriteByte(rgba.B)
	}
}

// writePixels writes the LZW code size, the compressed indices in
// sub-blocks of at most 255 bytes and the block terminator.
func writePixels(w *PageWriter, indices []byte, bits int) error {
	litWidth := max(bits, 2)
	w.WriteByte(byte(litWidth))

	bw := &blockWriter{w: w}
	buf := bufio.NewWriterSize(bw, 255)
	lz := lzw.NewWriter(buf, lzw.LSB, litWidth)
	if _, err := lz.Write(indices); err != nil {
		return fmt.Errorf("compressing pixels: %w", err)
	}
	if err := lz.Close(); err != nil {
		return fmt.Errorf("closing lzw stream: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flushing pixel blocks: %w", err)
	}

	return w.WriteByte(0)
}

// blockWriter frames its input as GIF data sub-blocks. It expects writes of
// at most 255 bytes, which the bufio.Writer in front of it guarantees.
type blockWriter struct {
	w *PageWriter
}

func (b *blockWriter) Write(p []byte) (int, error) {
	n := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > 255 {
			chunk = chunk[:255]
		}
		b.w.WriteByte(byte(len(chunk)))
		b.w.Write(chunk)
		n += len(chunk)
		p = p[len(chunk):]
	}
	return n, nil
}
