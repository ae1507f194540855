package codec

import (
	"image/color"
	"slices"
)

// MaxColors is the largest palette a GIF colour table can hold.
const MaxColors = 256

type rgb [3]uint8

// box is a median-cut bucket of sampled colours.
type box struct {
	colors []rgb
	min    rgb
	max    rgb
}

func newBox(colors []rgb) *box {
	b := &box{colors: colors, min: rgb{255, 255, 255}}
	for _, c := range colors {
		for ch := 0; ch < 3; ch++ {
			b.min[ch] = min(b.min[ch], c[ch])
			b.max[ch] = max(b.max[ch], c[ch])
		}
	}
	return b
}

// widest returns the channel with the largest range and that range.
func (b *box) widest() (int, int) {
	ch, span := 0, -1
	for i := 0; i < 3; i++ {
		if r := int(b.max[i]) - int(b.min[i]); r > span {
			ch, span = i, r
		}
	}
	return ch, span
}

func (b *box) mean() color.RGBA {
	var sum [3]int
	for _, c := range b.colors {
		sum[0] += int(c[0])
		sum[1] += int(c[1])
		sum[2] += int(c[2])
	}
	n := len(b.colors)
	return color.RGBA{
		R: uint8((sum[0] + n/2) / n),
		G: uint8((sum[1] + n/2) / n),
		B: uint8((sum[2] + n/2) / n),
		A: 0xff,
	}
}

// Quantize builds a palette of at most maxColors opaque colours from an
// RGBA buffer with median cut, sampling every sample-th pixel. Alpha is
// ignored.
func Quantize(pix []byte, sample, maxColors int) color.Palette {
	if sample < 1 {
		sample = 1
	}
	if maxColors < 1 || maxColors > MaxColors {
		maxColors = MaxColors
	}

	var samples []rgb
	for i := 0; i+3 < len(pix); i += 4 * sample {
		samples = append(samples, rgb{pix[i], pix[i+1], pix[i+2]})
	}
	if len(samples) == 0 {
		return color.Palette{color.RGBA{A: 0xff}}
	}

	boxes := []*box{newBox(samples)}
	for len(boxes) < maxColors {
		target, ch := -1, 0
		best := 0
		for i, b := range boxes {
			if len(b.colors) < 2 {
				continue
			}
			c, span := b.widest()
			if span > best {
				target, ch, best = i, c, span
			}
		}
		if target < 0 {
			break
		}

		b := boxes[target]
		slices.SortFunc(b.colors, func(x, y rgb) int { return int(x[ch]) - int(y[ch]) })
		mid := len(b.colors) / 2
		boxes[target] = newBox(b.colors[:mid])
		boxes = append(boxes, newBox(b.colors[mid:]))
	}

	palette := make(color.Palette, 0, len(boxes))
	seen := make(map[color.RGBA]bool, len(boxes))
	for _, b := range boxes {
		c := b.mean()
		if seen[c] {
			continue
		}
		seen[c] = true
		palette = append(palette, c)
	}
	return palette
}

// tableBits returns the colour table size exponent for n colours: the
// table holds 1<<bits entries, bits in [1, 8].
func tableBits(n int) int {
	bits := 1
	for 1<<bits < n && bits < 8 {
		bits++
	}
	return bits
}

// padPalette extends p with black to a power-of-two length.
func padPalette(p color.Palette) color.Palette {
	size := 1 << tableBits(len(p))
	if len(p) >= size {
		return p[:size]
	}
	out := make(color.Palette, size)
	copy(out, p)
	for i := len(p); i < size; i++ {
		out[i] = color.RGBA{A: 0xff}
	}
	return out
}
