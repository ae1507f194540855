// Package config loads encode manifests and applies environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/provide-io/gifweave/pkg/anim"
	"github.com/provide-io/gifweave/pkg/transfer"
	"github.com/provide-io/gifweave/pkg/utils/shellparse"
)

// Substrates a manifest may select for its workers.
const (
	SubstrateLocal   = "local"
	SubstrateProcess = "process"
)

// Manifest describes one encode: global options and the ordered frames.
//
// Frame paths are relative to the manifest's directory unless absolute.
type Manifest struct {
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Workers       int    `json:"workers,omitempty"`
	Repeat        *int   `json:"repeat,omitempty"`
	Quality       int    `json:"quality,omitempty"`
	Dither        bool   `json:"dither,omitempty"`
	GlobalPalette bool   `json:"global_palette,omitempty"`
	Background    string `json:"background,omitempty"`
	Transparent   string `json:"transparent,omitempty"`
	Delay         int    `json:"delay,omitempty"` // default frame delay, ms
	PageSize      int    `json:"page_size,omitempty"`
	Resample      string `json:"resample,omitempty"`

	Substrate string `json:"substrate,omitempty"`
	WorkerCmd string `json:"worker_cmd,omitempty"`
	Transfer  string `json:"transfer,omitempty"`

	Output string `json:"output,omitempty"`
	Mode   string `json:"mode,omitempty"`

	Frames []FrameSpec `json:"frames"`
}

// FrameSpec is one frame of a manifest.
type FrameSpec struct {
	Path        string `json:"path"`
	Delay       int    `json:"delay,omitempty"`
	Transparent string `json:"transparent,omitempty"`
	Copy        bool   `json:"copy,omitempty"`
}

// Load reads a manifest and resolves its frame paths.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Frames {
		if p := m.Frames[i].Path; p != "" && !filepath.IsAbs(p) {
			m.Frames[i].Path = filepath.Join(base, p)
		}
	}
	if m.Output != "" && !filepath.IsAbs(m.Output) {
		m.Output = filepath.Join(base, m.Output)
	}

	return &m, nil
}

// ApplyEnv overrides fields from GIFWEAVE_* variables read with getenv.
func (m *Manifest) ApplyEnv(getenv func(string) string) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"GIFWEAVE_WORKERS", &m.Workers},
		{"GIFWEAVE_QUALITY", &m.Quality},
		{"GIFWEAVE_PAGE_SIZE", &m.PageSize},
	}
	for _, v := range ints {
		raw := strings.TrimSpace(getenv(v.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = n
	}

	if raw := strings.TrimSpace(getenv("GIFWEAVE_DITHER")); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("GIFWEAVE_DITHER: %w", err)
		}
		m.Dither = on
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"GIFWEAVE_SUBSTRATE", &m.Substrate},
		{"GIFWEAVE_WORKER_CMD", &m.WorkerCmd},
		{"GIFWEAVE_TRANSFER", &m.Transfer},
		{"GIFWEAVE_RESAMPLE", &m.Resample},
	}
	for _, v := range strs {
		if raw := strings.TrimSpace(getenv(v.key)); raw != "" {
			*v.dst = raw
		}
	}
	return nil
}

// Validate checks the manifest without touching the filesystem.
func (m *Manifest) Validate() error {
	if len(m.Frames) == 0 {
		return fmt.Errorf("manifest lists no frames")
	}
	for i, f := range m.Frames {
		if f.Path == "" {
			return fmt.Errorf("frame %d: path is required", i)
		}
		if f.Delay < 0 {
			return fmt.Errorf("frame %d: negative delay %d", i, f.Delay)
		}
		if f.Transparent != "" {
			if _, err := anim.ParseColor(f.Transparent); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}
	}
	if m.Width < 0 || m.Height < 0 {
		return fmt.Errorf("negative size %dx%d", m.Width, m.Height)
	}
	switch m.Substrate {
	case "", SubstrateLocal, SubstrateProcess:
	default:
		return fmt.Errorf("unknown substrate %q", m.Substrate)
	}
	if _, err := transfer.StringToOperations(m.Transfer); err != nil {
		return err
	}
	if _, err := m.WorkerArgv(); err != nil {
		return err
	}
	if _, err := anim.ParseResample(m.Resample); err != nil {
		return err
	}
	return nil
}

// EncoderOptions converts the global settings to encoder options. Zero
// values leave the encoder defaults in place.
func (m *Manifest) EncoderOptions() ([]anim.Option, error) {
	var opts []anim.Option

	if m.Width > 0 || m.Height > 0 {
		opts = append(opts, anim.WithSize(m.Width, m.Height))
	}
	if m.Workers > 0 {
		opts = append(opts, anim.WithWorkers(m.Workers))
	}
	if m.Repeat != nil {
		opts = append(opts, anim.WithRepeat(*m.Repeat))
	}
	if m.Quality > 0 {
		opts = append(opts, anim.WithQuality(m.Quality))
	}
	if m.Dither {
		opts = append(opts, anim.WithDither(true))
	}
	if m.GlobalPalette {
		opts = append(opts, anim.WithSharedPalette())
	}
	if m.PageSize > 0 {
		opts = append(opts, anim.WithPageSize(m.PageSize))
	}
	if m.Background != "" {
		c, err := anim.ParseColor(m.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		opts = append(opts, anim.WithBackground(c))
	}
	if m.Transparent != "" {
		c, err := anim.ParseColor(m.Transparent)
		if err != nil {
			return nil, fmt.Errorf("transparent: %w", err)
		}
		opts = append(opts, anim.WithTransparent(c))
	}
	if m.Resample != "" {
		r, err := anim.ParseResample(m.Resample)
		if err != nil {
			return nil, err
		}
		opts = append(opts, anim.WithResample(r))
	}

	return opts, nil
}

// FrameOptions returns the options of frame i, falling back to the
// manifest's default delay.
func (m *Manifest) FrameOptions(i int) (anim.FrameOptions, error) {
	f := m.Frames[i]
	fo := anim.FrameOptions{Delay: f.Delay, Copy: f.Copy}
	if fo.Delay == 0 {
		fo.Delay = m.Delay
	}
	if f.Transparent != "" {
		c, err := anim.ParseColor(f.Transparent)
		if err != nil {
			return anim.FrameOptions{}, fmt.Errorf("frame %d: %w", i, err)
		}
		fo.Transparent = &c
	}
	return fo, nil
}

// WorkerArgv splits WorkerCmd into the worker executable and its arguments.
// An empty command yields nil.
func (m *Manifest) WorkerArgv() ([]string, error) {
	argv, err := shellparse.Split(m.WorkerCmd)
	if err != nil {
		return nil, fmt.Errorf("worker_cmd: %w", err)
	}
	if len(argv) == 0 {
		return nil, nil
	}
	return argv, nil
}
