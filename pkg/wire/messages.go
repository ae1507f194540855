package wire

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/provide-io/gifweave/pkg/anim"
	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/provide-io/gifweave/pkg/transfer"
)

// MaxPayload bounds the payload a reader accepts.
const MaxPayload = 1 << 30

func paletteBytes(p color.Palette) []byte {
	out := make([]byte, 0, len(p)*3)
	for _, c := range p {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		out = append(out, rgba.R, rgba.G, rgba.B)
	}
	return out
}

func paletteFrom(data []byte) color.Palette {
	p := make(color.Palette, len(data)/3)
	for i := range p {
		p[i] = color.RGBA{R: data[i*3], G: data[i*3+1], B: data[i*3+2], A: 0xff}
	}
	return p
}

func encodePayload(raw []byte, ops uint64) ([]byte, error) {
	if len(raw) > MaxPayload {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(raw), MaxPayload)
	}
	return transfer.ApplyChain(raw, ops)
}

func readPayload(r io.Reader, size uint64, ops uint64, originalSize, checksum uint32) ([]byte, error) {
	if size > MaxPayload {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", size, MaxPayload)
	}
	encoded := make([]byte, size)
	if _, err := io.ReadFull(r, encoded); err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if got := Adler32(encoded); got != checksum {
		return nil, fmt.Errorf("%w: payload adler32 %08x, descriptor %08x", gwerrors.ErrChecksumMismatch, got, checksum)
	}

	raw, err := transfer.ReverseChain(encoded, ops)
	if err != nil {
		return nil, err
	}
	if len(raw) != int(originalSize) {
		return nil, fmt.Errorf("payload decoded to %d bytes, descriptor says %d", len(raw), originalSize)
	}
	return raw, nil
}

func readDescriptor(r io.Reader) ([]byte, error) {
	buf := make([]byte, DescriptorSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteTask writes task to w with its payload encoded through ops.
func WriteTask(w io.Writer, task anim.Task, ops uint64) error {
	var palette color.Palette
	if task.Palette.Mode == anim.PaletteResolved {
		palette = task.Palette.Palette
	}
	if len(palette) > 0xFFFF {
		return fmt.Errorf("frame %d: palette of %d colours", task.Index, len(palette))
	}

	raw := append(paletteBytes(palette), task.Pixels...)
	payload, err := encodePayload(raw, ops)
	if err != nil {
		return fmt.Errorf("frame %d: %w", task.Index, err)
	}

	d := TaskDescriptor{
		Magic:        TaskMagic,
		Index:        int32(task.Index),
		Width:        uint32(task.Width),
		Height:       uint32(task.Height),
		Delay:        uint32(max(task.Delay, 0)),
		Repeat:       int32(task.Repeat),
		Quality:      uint16(task.Quality),
		PaletteLen:   uint16(len(palette)),
		PageSize:     uint32(task.PageSize),
		PayloadSize:  uint64(len(payload)),
		Operations:   ops,
		OriginalSize: uint32(len(raw)),
		Checksum:     Adler32(payload),
	}
	if task.Last {
		d.Flags |= TaskFlagLast
	}
	if task.Dither {
		d.Flags |= TaskFlagDither
	}
	if task.CanTransfer {
		d.Flags |= TaskFlagCanTransfer
	}
	if t := task.Transparent; t != nil {
		d.Flags |= TaskFlagHasTransparent
		d.TransparentRGB = [3]byte{t.R, t.G, t.B}
	}
	d.SetPaletteMode(uint8(task.Palette.Mode))

	if _, err := w.Write(d.Pack()); err != nil {
		return fmt.Errorf("writing task descriptor: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing task payload: %w", err)
	}
	return nil
}

// ReadTask reads the next task from r. It returns io.EOF when r ends
// cleanly between messages.
func ReadTask(r io.Reader) (anim.Task, error) {
	buf, err := readDescriptor(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return anim.Task{}, io.EOF
		}
		return anim.Task{}, fmt.Errorf("reading task descriptor: %w", err)
	}

	var d TaskDescriptor
	if err := d.Unpack(buf); err != nil {
		return anim.Task{}, err
	}

	raw, err := readPayload(r, d.PayloadSize, d.Operations, d.OriginalSize, d.Checksum)
	if err != nil {
		return anim.Task{}, fmt.Errorf("frame %d: %w", d.Index, err)
	}
	paletteLen := int(d.PaletteLen) * 3
	if paletteLen > len(raw) {
		return anim.Task{}, fmt.Errorf("frame %d: palette overruns payload", d.Index)
	}

	task := anim.Task{
		Index:       int(d.Index),
		Last:        d.Flags&TaskFlagLast != 0,
		Delay:       int(d.Delay),
		Width:       int(d.Width),
		Height:      int(d.Height),
		Quality:     int(d.Quality),
		Dither:      d.Flags&TaskFlagDither != 0,
		Palette:     anim.SharedPalette{Mode: anim.PaletteMode(d.PaletteMode())},
		Repeat:      int(d.Repeat),
		CanTransfer: d.Flags&TaskFlagCanTransfer != 0,
		PageSize:    int(d.PageSize),
		Pixels:      raw[paletteLen:],
	}
	if paletteLen > 0 {
		task.Palette.Palette = paletteFrom(raw[:paletteLen])
	}
	if d.Flags&TaskFlagHasTransparent != 0 {
		task.Transparent = &color.RGBA{R: d.TransparentRGB[0], G: d.TransparentRGB[1], B: d.TransparentRGB[2], A: 0xff}
	}
	return task, nil
}

// WriteResult writes res to w. A failed result carries only its error
// text.
func WriteResult(w io.Writer, res anim.TaskResult, ops uint64) error {
	d := ResultDescriptor{
		Magic:      ResultMagic,
		Index:      int32(res.Index),
		Operations: ops,
	}

	var raw []byte
	if res.Err != nil {
		msg := []byte(res.Err.Error())
		d.Flags |= ResultFlagError
		d.ErrLen = uint32(len(msg))
		raw = msg
	} else {
		if len(res.Palette) > 0xFFFF {
			return fmt.Errorf("frame %d: palette of %d colours", res.Index, len(res.Palette))
		}
		if len(res.Palette) > 0 {
			d.Flags |= ResultFlagHasPalette
			d.PaletteLen = uint16(len(res.Palette))
		}
		d.PageSize = uint32(res.PageSize)
		d.Cursor = uint32(res.Cursor)
		d.PageCount = uint32(len(res.Pages))

		raw = paletteBytes(res.Palette)
		last := len(res.Pages) - 1
		for i, page := range res.Pages {
			n := res.PageSize
			if i == last {
				n = res.Cursor
			}
			if n > len(page) {
				return fmt.Errorf("frame %d: page %d shorter than %d bytes", res.Index, i, n)
			}
			raw = append(raw, page[:n]...)
		}
	}

	payload, err := encodePayload(raw, ops)
	if err != nil {
		return fmt.Errorf("frame %d: %w", res.Index, err)
	}
	d.PayloadSize = uint64(len(payload))
	d.OriginalSize = uint32(len(raw))
	d.Checksum = Adler32(payload)

	if _, err := w.Write(d.Pack()); err != nil {
		return fmt.Errorf("writing result descriptor: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing result payload: %w", err)
	}
	return nil
}

// ReadResult reads the next result from r and rebuilds its pages. It
// returns io.EOF when r ends cleanly between messages.
func ReadResult(r io.Reader) (anim.TaskResult, error) {
	buf, err := readDescriptor(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return anim.TaskResult{}, io.EOF
		}
		return anim.TaskResult{}, fmt.Errorf("reading result descriptor: %w", err)
	}

	var d ResultDescriptor
	if err := d.Unpack(buf); err != nil {
		return anim.TaskResult{}, err
	}

	raw, err := readPayload(r, d.PayloadSize, d.Operations, d.OriginalSize, d.Checksum)
	if err != nil {
		return anim.TaskResult{}, fmt.Errorf("frame %d: %w", d.Index, err)
	}

	res := anim.TaskResult{Index: int(d.Index)}
	if d.Flags&ResultFlagError != 0 {
		res.Err = fmt.Errorf("%w: %s", gwerrors.ErrWorkerFailed, raw)
		return res, nil
	}

	paletteLen := int(d.PaletteLen) * 3
	if paletteLen+d.SegmentLen() != len(raw) {
		return anim.TaskResult{}, fmt.Errorf("frame %d: payload holds %d bytes, descriptor describes %d",
			d.Index, len(raw), paletteLen+d.SegmentLen())
	}
	if d.PageCount > 0 && (d.PageSize == 0 || d.Cursor > d.PageSize) {
		return anim.TaskResult{}, fmt.Errorf("frame %d: cursor %d outside page of %d bytes", d.Index, d.Cursor, d.PageSize)
	}
	if paletteLen > 0 {
		res.Palette = paletteFrom(raw[:paletteLen])
	}

	res.PageSize = int(d.PageSize)
	res.Cursor = int(d.Cursor)
	segment := bytes.NewReader(raw[paletteLen:])
	for i := 0; i < int(d.PageCount); i++ {
		page := make([]byte, res.PageSize)
		n := res.PageSize
		if i == int(d.PageCount)-1 {
			n = res.Cursor
		}
		if _, err := io.ReadFull(segment, page[:n]); err != nil {
			return anim.TaskResult{}, fmt.Errorf("frame %d: rebuilding page %d: %w", d.Index, i, err)
		}
		res.Pages = append(res.Pages, page)
	}
	return res, nil
}
