package anim

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// PaletteMode is the state of the shared palette negotiation.
type PaletteMode uint8

const (
	// PaletteNotRequested means every frame computes its own palette.
	PaletteNotRequested PaletteMode = iota
	// PalettePending means a shared palette was requested and the first
	// frame has not reported it yet.
	PalettePending
	// PaletteResolved means the shared palette is known and embedded in
	// every task.
	PaletteResolved
)

func (m PaletteMode) String() string {
	switch m {
	case PaletteNotRequested:
		return "not-requested"
	case PalettePending:
		return "pending"
	case PaletteResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// SharedPalette carries the palette negotiation state. Palette is only
// meaningful when Mode is PaletteResolved.
type SharedPalette struct {
	Mode    PaletteMode
	Palette color.Palette
}

// Requested reports whether a shared palette is in use at all.
func (p SharedPalette) Requested() bool {
	return p.Mode != PaletteNotRequested
}

// Resolve returns the resolved state for palette.
func Resolve(palette color.Palette) SharedPalette {
	return SharedPalette{Mode: PaletteResolved, Palette: palette}
}

// Options holds the settings of one render session. Width and Height must be
// known (explicitly or from the first frame) before Render.
type Options struct {
	Width       int
	Height      int
	Workers     int
	Repeat      int
	Background  color.RGBA
	Quality     int
	Dither      bool
	Palette     SharedPalette
	Debug       bool
	Transparent *color.RGBA // default for frames that do not set one
	PageSize    int
	Resample    Resample

	// CanTransfer lets workers take ownership of frame pixel buffers
	// instead of receiving a private copy.
	CanTransfer bool
}

// DefaultOptions returns the options a new Encoder starts from.
func DefaultOptions() Options {
	bg, _ := ParseColor(DefaultBackground)
	return Options{
		Workers:    DefaultWorkers,
		Repeat:     DefaultRepeat,
		Background: bg,
		Quality:    DefaultQuality,
		PageSize:   DefaultPageSize,
		Resample:   ResampleNone,
	}
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithSize sets the output dimensions.
func WithSize(width, height int) Option {
	return func(e *Encoder) {
		e.opts.Width = width
		e.opts.Height = height
	}
}

// WithWorkers caps the worker pool.
func WithWorkers(n int) Option {
	return func(e *Encoder) {
		if n < 1 {
			n = 1
		}
		e.opts.Workers = n
	}
}

// WithRepeat sets the loop count (RepeatForever, RepeatNone or a count).
func WithRepeat(n int) Option {
	return func(e *Encoder) { e.opts.Repeat = n }
}

// WithBackground sets the fill colour drawn behind drawable frames.
func WithBackground(c color.RGBA) Option {
	return func(e *Encoder) { e.opts.Background = c }
}

// WithQuality sets the palette sampling interval, clamped to
// [MinQuality, MaxQuality]. Lower is better and slower.
func WithQuality(q int) Option {
	return func(e *Encoder) { e.opts.Quality = clampQuality(q) }
}

// WithDither enables Floyd-Steinberg error diffusion.
func WithDither(on bool) Option {
	return func(e *Encoder) { e.opts.Dither = on }
}

// WithSharedPalette asks the first frame to compute a palette that every
// later frame reuses. Each Render analyses the palette again.
func WithSharedPalette() Option {
	return func(e *Encoder) {
		e.opts.Palette = SharedPalette{Mode: PalettePending}
		e.paletteAnalysed = false
	}
}

// WithPalette supplies an already known shared palette, kept across
// renders. An empty palette turns sharing off.
func WithPalette(p color.Palette) Option {
	return func(e *Encoder) {
		e.opts.Palette = SharedPalette{}
		if len(p) > 0 {
			e.opts.Palette = Resolve(p)
		}
		e.paletteAnalysed = false
	}
}

// WithTransparent sets the default transparent colour.
func WithTransparent(c color.RGBA) Option {
	return func(e *Encoder) { e.opts.Transparent = &c }
}

// WithPageSize sets the worker output page size.
func WithPageSize(n int) Option {
	return func(e *Encoder) {
		if n < MinPageSize {
			n = MinPageSize
		}
		e.opts.PageSize = n
	}
}

// WithResample sets how drawables larger or smaller than the output are
// fitted onto the canvas.
func WithResample(r Resample) Option {
	return func(e *Encoder) { e.opts.Resample = r }
}

// WithTransfer declares that workers may own frame buffers.
func WithTransfer(on bool) Option {
	return func(e *Encoder) { e.opts.CanTransfer = on }
}

// WithDebug raises the encoder logger to debug.
func WithDebug(on bool) Option {
	return func(e *Encoder) { e.opts.Debug = on }
}

// WithLogger replaces the encoder logger.
func WithLogger(logger hclog.Logger) Option {
	return func(e *Encoder) { e.logger = logger }
}

// WithWorkerFactory sets how pool workers are created.
func WithWorkerFactory(f WorkerFactory) Option {
	return func(e *Encoder) { e.factory = f }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(e *Encoder) { e.metrics = m }
}

func clampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// ParseColor parses "#rgb", "#rrggbb", "0xrrggbb" or "rrggbb" into an opaque
// colour.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimSpace(strings.ToLower(s))
	hex = strings.TrimPrefix(hex, "#")
	hex = strings.TrimPrefix(hex, "0x")

	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
