// Package pkg is the high-level entry point used by the gifweave command:
// it turns a manifest into an animated GIF on disk.
package pkg

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/provide-io/gifweave/internal/config"
	"github.com/provide-io/gifweave/pkg/anim"
	"github.com/provide-io/gifweave/pkg/logging"
	"github.com/provide-io/gifweave/pkg/transfer"
	_ "github.com/provide-io/gifweave/pkg/transfer/compress"
	"github.com/provide-io/gifweave/pkg/utils/permissions"
	"github.com/provide-io/gifweave/pkg/wire"
	"github.com/provide-io/gifweave/pkg/worker"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// EncodeRequest is one encode run.
type EncodeRequest struct {
	Manifest *config.Manifest

	// LogLevel applies when Logger is nil.
	LogLevel string
	Logger   hclog.Logger

	// WorkerArgs are appended to the manifest's worker command. Without a
	// worker command the running executable is used and they default to
	// {"worker"}.
	WorkerArgs []string

	// Progress, when set, receives progress updates in [0, 1].
	Progress func(float64)

	// MetricsOut, when set, receives the run's metrics in Prometheus text
	// format.
	MetricsOut io.Writer
}

// EncodeResult describes the written file.
type EncodeResult struct {
	Path     string
	Size     int
	Frames   int
	Checksum string
}

// LoadFrame decodes an image file in any registered format.
func LoadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameDecode, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFrameDecode, path, err)
	}
	return img, nil
}

// NewWorkerFactory builds the factory the manifest's substrate asks for.
func NewWorkerFactory(m *config.Manifest, args []string, logger hclog.Logger) (anim.WorkerFactory, error) {
	switch m.Substrate {
	case "", config.SubstrateLocal:
		return worker.LocalFactory(nil, logger.Named("worker")), nil
	case config.SubstrateProcess:
		ops, err := transfer.StringToOperations(m.Transfer)
		if err != nil {
			return nil, err
		}
		argv, err := m.WorkerArgv()
		if err != nil {
			return nil, err
		}
		var bin string
		if len(argv) > 0 {
			bin = argv[0]
			args = append(argv[1:len(argv):len(argv)], args...)
		} else if args == nil {
			args = []string{"worker"}
		}
		return worker.ProcessFactory(worker.ProcessConfig{
			Bin:      bin,
			Args:     args,
			Transfer: ops,
			Logger:   logger.Named("worker"),
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubstrate, m.Substrate)
	}
}

// Encode renders the manifest's frames and writes the animation to
// Manifest.Output. Cancelling ctx aborts the render.
func Encode(ctx context.Context, req EncodeRequest) (*EncodeResult, error) {
	m := req.Manifest
	if m == nil {
		return nil, errors.New("no manifest")
	}
	if m.Output == "" {
		return nil, ErrNoOutput
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	mode, err := permissions.ParseOctalString(m.Mode)
	if err != nil {
		return nil, err
	}

	logger := req.Logger
	if logger == nil {
		logger = logging.NewLogger("gifweave", logging.ResolveLevel(req.LogLevel), nil)
	}

	factory, err := NewWorkerFactory(m, req.WorkerArgs, logger)
	if err != nil {
		return nil, err
	}

	opts, err := m.EncoderOptions()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts = append(opts,
		anim.WithLogger(logger.Named("anim")),
		anim.WithWorkerFactory(factory),
		anim.WithMetrics(anim.NewMetrics("gifweave", registry)),
	)

	enc := anim.New(opts...)
	defer enc.Close()

	if req.Progress != nil {
		if _, err := enc.OnProgress(req.Progress); err != nil {
			return nil, err
		}
	}

	for i, spec := range m.Frames {
		fo, err := m.FrameOptions(i)
		if err != nil {
			return nil, err
		}
		img, err := LoadFrame(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if _, err := enc.AddFrame(img, fo); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		logger.Debug("🖼️ Loaded frame", "index", i, "path", spec.Path, "size", img.Bounds().Size())
	}

	logger.Info("🎞️ Encoding animation", "frames", len(m.Frames), "output", m.Output, "substrate", m.Substrate)
	if err := enc.Render(); err != nil {
		return nil, err
	}

	data, err := enc.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("🛑 Encode cancelled", "error", ctx.Err())
			enc.Abort()
		}
		return nil, err
	}

	if err := os.WriteFile(m.Output, data, mode); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}

	res := &EncodeResult{
		Path:     m.Output,
		Size:     len(data),
		Frames:   len(m.Frames),
		Checksum: wire.Checksum(data, wire.ChecksumSHA256),
	}
	logger.Info("✅ Animation written", "path", res.Path, "size", res.Size, "checksum", res.Checksum)

	if req.MetricsOut != nil {
		if err := writeMetrics(req.MetricsOut, registry); err != nil {
			logger.Warn("⚠️ Failed to write metrics", "error", err)
		}
	}

	return res, nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
