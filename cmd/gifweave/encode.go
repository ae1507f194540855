package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/provide-io/gifweave/internal/config"
	"github.com/provide-io/gifweave/pkg"
	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/provide-io/gifweave/pkg/logging"
	"github.com/spf13/cobra"
)

var encodeFlags struct {
	manifest      string
	output        string
	workers       int
	delay         int
	repeat        int
	quality       int
	dither        bool
	globalPalette bool
	background    string
	transparent   string
	width         int
	height        int
	resample      string
	substrate     string
	workerCmd     string
	transfer      string
	mode          string
	metrics       bool
}

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [frames...]",
		Short: "Encode image files into an animated GIF",
		Long: `Encode image files into an animated GIF.

Frames come from --manifest, from the arguments, or both (manifest frames
first). Flags override GIFWEAVE_* environment variables, which override the
manifest.`,
		RunE: runEncode,
	}

	f := cmd.Flags()
	f.StringVarP(&encodeFlags.manifest, "manifest", "m", "", "Path to an encode manifest (JSON)")
	f.StringVarP(&encodeFlags.output, "output", "o", "", "Output GIF path")
	f.IntVarP(&encodeFlags.workers, "workers", "w", 0, "Number of workers")
	f.IntVarP(&encodeFlags.delay, "delay", "d", 0, "Default frame delay in milliseconds")
	f.IntVar(&encodeFlags.repeat, "repeat", 0, "Loop count: 0 forever, -1 once")
	f.IntVarP(&encodeFlags.quality, "quality", "q", 0, "Palette sampling interval, 1 (best) to 30")
	f.BoolVar(&encodeFlags.dither, "dither", false, "Enable Floyd-Steinberg dithering")
	f.BoolVar(&encodeFlags.globalPalette, "global-palette", false, "Compute one palette from the first frame and share it")
	f.StringVar(&encodeFlags.background, "background", "", "Background colour behind frames, e.g. #fff")
	f.StringVar(&encodeFlags.transparent, "transparent", "", "Colour rendered transparent, e.g. #00ff00")
	f.IntVar(&encodeFlags.width, "width", 0, "Output width (default: first frame)")
	f.IntVar(&encodeFlags.height, "height", 0, "Output height (default: first frame)")
	f.StringVar(&encodeFlags.resample, "resample", "", "Fit frames to the output: none, nearest, approx-bilinear, bilinear, catmull-rom, mitchell, lanczos")
	f.StringVar(&encodeFlags.substrate, "substrate", "", "Where workers run: local or process")
	f.StringVar(&encodeFlags.workerCmd, "worker-cmd", "", "Worker command line for --substrate=process, shell quoted")
	f.StringVar(&encodeFlags.transfer, "transfer", "", "Transfer encoding for process workers: raw, gzip, bzip2, zstd")
	f.StringVar(&encodeFlags.mode, "mode", "", "Output file mode, e.g. 0644")
	f.BoolVar(&encodeFlags.metrics, "metrics", false, "Print Prometheus metrics to stderr when done")

	return cmd
}

func buildManifest(cmd *cobra.Command, args []string) (*config.Manifest, error) {
	m := &config.Manifest{}
	if encodeFlags.manifest != "" {
		loaded, err := config.Load(encodeFlags.manifest)
		if err != nil {
			return nil, err
		}
		m = loaded
	}
	if err := m.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	for _, path := range args {
		m.Frames = append(m.Frames, config.FrameSpec{Path: path})
	}

	f := cmd.Flags()
	if f.Changed("output") {
		m.Output = encodeFlags.output
	}
	if f.Changed("workers") {
		m.Workers = encodeFlags.workers
	}
	if f.Changed("delay") {
		m.Delay = encodeFlags.delay
	}
	if f.Changed("repeat") {
		repeat := encodeFlags.repeat
		m.Repeat = &repeat
	}
	if f.Changed("quality") {
		m.Quality = encodeFlags.quality
	}
	if f.Changed("dither") {
		m.Dither = encodeFlags.dither
	}
	if f.Changed("global-palette") {
		m.GlobalPalette = encodeFlags.globalPalette
	}
	if f.Changed("background") {
		m.Background = encodeFlags.background
	}
	if f.Changed("transparent") {
		m.Transparent = encodeFlags.transparent
	}
	if f.Changed("width") {
		m.Width = encodeFlags.width
	}
	if f.Changed("height") {
		m.Height = encodeFlags.height
	}
	if f.Changed("resample") {
		m.Resample = encodeFlags.resample
	}
	if f.Changed("substrate") {
		m.Substrate = encodeFlags.substrate
	}
	if f.Changed("worker-cmd") {
		m.WorkerCmd = encodeFlags.workerCmd
	}
	if f.Changed("transfer") {
		m.Transfer = encodeFlags.transfer
	}
	if f.Changed("mode") {
		m.Mode = encodeFlags.mode
	}

	return m, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	m, err := buildManifest(cmd, args)
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" && os.Getenv(logging.EnvLogLevel) == "" {
		level = "info"
	}
	logger := logging.NewLogger("gifweave", logging.ResolveLevel(level), nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := pkg.EncodeRequest{Manifest: m, Logger: logger}
	if encodeFlags.metrics {
		req.MetricsOut = os.Stderr
	}

	res, err := pkg.Encode(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d frames, %d bytes, %s)\n", res.Path, res.Frames, res.Size, res.Checksum)
	return nil
}

func exitCode(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, gwerrors.ErrAborted) {
		return ExitAborted
	}
	return ExitError
}
