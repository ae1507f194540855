// Package wire frames tasks and results for workers that run in another
// process. Each message is a 64-byte little-endian descriptor followed by
// its payload, encoded through a transfer chain.
package wire

import (
	"encoding/binary"
	"fmt"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

// DescriptorSize is the fixed size of every descriptor.
const DescriptorSize = 64

var (
	TaskMagic   = [4]byte{'G', 'W', 'T', '1'}
	ResultMagic = [4]byte{'G', 'W', 'R', '1'}
)

// Task flags.
const (
	TaskFlagLast           = 1 << 0
	TaskFlagDither         = 1 << 1
	TaskFlagHasTransparent = 1 << 2
	TaskFlagCanTransfer    = 1 << 3

	taskPaletteShift = 8
	taskPaletteMask  = 0x3 << taskPaletteShift
)

// Result flags.
const (
	ResultFlagError      = 1 << 0
	ResultFlagHasPalette = 1 << 1
)

// TaskDescriptor precedes a task payload: the palette as RGB triplets
// followed by the frame's RGBA pixels.
type TaskDescriptor struct {
	Magic          [4]byte
	Index          int32
	Width          uint32
	Height         uint32
	Delay          uint32 // milliseconds
	Repeat         int32
	Quality        uint16
	Flags          uint16
	TransparentRGB [3]byte
	_              byte
	PaletteLen     uint16
	_              uint16
	PageSize       uint32
	PayloadSize    uint64 // encoded bytes following the descriptor
	Operations     uint64 // packed transfer chain
	OriginalSize   uint32 // payload bytes before the chain
	Checksum       uint32 // Adler-32 of the encoded payload
}

// PaletteMode returns the palette negotiation state carried in Flags.
func (d *TaskDescriptor) PaletteMode() uint8 {
	return uint8((d.Flags & taskPaletteMask) >> taskPaletteShift)
}

// SetPaletteMode stores mode in Flags.
func (d *TaskDescriptor) SetPaletteMode(mode uint8) {
	d.Flags = d.Flags&^taskPaletteMask | uint16(mode)<<taskPaletteShift&taskPaletteMask
}

// Pack serializes the descriptor.
func (d *TaskDescriptor) Pack() []byte {
	buf := make([]byte, DescriptorSize)

	copy(buf[0:4], d.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(d.Index))
	binary.LittleEndian.PutUint32(buf[8:12], d.Width)
	binary.LittleEndian.PutUint32(buf[12:16], d.Height)
	binary.LittleEndian.PutUint32(buf[16:20], d.Delay)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(d.Repeat))
	binary.LittleEndian.PutUint16(buf[24:26], d.Quality)
	binary.LittleEndian.PutUint16(buf[26:28], d.Flags)
	copy(buf[28:31], d.TransparentRGB[:])
	binary.LittleEndian.PutUint16(buf[32:34], d.PaletteLen)
	binary.LittleEndian.PutUint32(buf[36:40], d.PageSize)
	binary.LittleEndian.PutUint64(buf[40:48], d.PayloadSize)
	binary.LittleEndian.PutUint64(buf[48:56], d.Operations)
	binary.LittleEndian.PutUint32(buf[56:60], d.OriginalSize)
	binary.LittleEndian.PutUint32(buf[60:64], d.Checksum)

	return buf
}

// Unpack deserializes the descriptor and checks its magic.
func (d *TaskDescriptor) Unpack(data []byte) error {
	if len(data) != DescriptorSize {
		return fmt.Errorf("invalid task descriptor size: %d", len(data))
	}

	copy(d.Magic[:], data[0:4])
	if d.Magic != TaskMagic {
		return fmt.Errorf("%w: task descriptor starts with %q", gwerrors.ErrInvalidMagic, data[0:4])
	}
	d.Index = int32(binary.LittleEndian.Uint32(data[4:8]))
	d.Width = binary.LittleEndian.Uint32(data[8:12])
	d.Height = binary.LittleEndian.Uint32(data[12:16])
	d.Delay = binary.LittleEndian.Uint32(data[16:20])
	d.Repeat = int32(binary.LittleEndian.Uint32(data[20:24]))
	d.Quality = binary.LittleEndian.Uint16(data[24:26])
	d.Flags = binary.LittleEndian.Uint16(data[26:28])
	copy(d.TransparentRGB[:], data[28:31])
	d.PaletteLen = binary.LittleEndian.Uint16(data[32:34])
	d.PageSize = binary.LittleEndian.Uint32(data[36:40])
	d.PayloadSize = binary.LittleEndian.Uint64(data[40:48])
	d.Operations = binary.LittleEndian.Uint64(data[48:56])
	d.OriginalSize = binary.LittleEndian.Uint32(data[56:60])
	d.Checksum = binary.LittleEndian.Uint32(data[60:64])

	return nil
}

// ResultDescriptor precedes a result payload: the palette as RGB triplets,
// the encoded segment and the error text, in that order.
type ResultDescriptor struct {
	Magic        [4]byte
	Index        int32
	PageSize     uint32
	Cursor       uint32
	PageCount    uint32
	PaletteLen   uint16
	Flags        uint16
	ErrLen       uint32
	_            uint32
	PayloadSize  uint64
	Operations   uint64
	OriginalSize uint32
	Checksum     uint32
	_            [8]byte
}

// SegmentLen returns the length of the encoded segment in the payload.
func (d *ResultDescriptor) SegmentLen() int {
	if d.PageCount == 0 {
		return 0
	}
	return int(d.PageCount-1)*int(d.PageSize) + int(d.Cursor)
}

// Pack serializes the descriptor.
func (d *ResultDescriptor) Pack() []byte {
	buf := make([]byte, DescriptorSize)

	copy(buf[0:4], d.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(d.Index))
	binary.LittleEndian.PutUint32(buf[8:12], d.PageSize)
	binary.LittleEndian.PutUint32(buf[12:16], d.Cursor)
	binary.LittleEndian.PutUint32(buf[16:20], d.PageCount)
	binary.LittleEndian.PutUint16(buf[20:22], d.PaletteLen)
	binary.LittleEndian.PutUint16(buf[22:24], d.Flags)
	binary.LittleEndian.PutUint32(buf[24:28], d.ErrLen)
	binary.LittleEndian.PutUint64(buf[32:40], d.PayloadSize)
	binary.LittleEndian.PutUint64(buf[40:48], d.Operations)
	binary.LittleEndian.PutUint32(buf[48:52], d.OriginalSize)
	binary.LittleEndian.PutUint32(buf[52:56], d.Checksum)

	return buf
}

// Unpack deserializes the descriptor and checks its magic.
func (d *ResultDescriptor) Unpack(data []byte) error {
	if len(data) != DescriptorSize {
		return fmt.Errorf("invalid result descriptor size: %d", len(data))
	}

	copy(d.Magic[:], data[0:4])
	if d.Magic != ResultMagic {
		return fmt.Errorf("%w: result descriptor starts with %q", gwerrors.ErrInvalidMagic, data[0:4])
	}
	d.Index = int32(binary.LittleEndian.Uint32(data[4:8]))
	d.PageSize = binary.LittleEndian.Uint32(data[8:12])
	d.Cursor = binary.LittleEndian.Uint32(data[12:16])
	d.PageCount = binary.LittleEndian.Uint32(data[16:20])
	d.PaletteLen = binary.LittleEndian.Uint16(data[20:22])
	d.Flags = binary.LittleEndian.Uint16(data[22:24])
	d.ErrLen = binary.LittleEndian.Uint32(data[24:28])
	d.PayloadSize = binary.LittleEndian.Uint64(data[32:40])
	d.Operations = binary.LittleEndian.Uint64(data[40:48])
	d.OriginalSize = binary.LittleEndian.Uint32(data[48:52])
	d.Checksum = binary.LittleEndian.Uint32(data[52:56])

	return nil
}
