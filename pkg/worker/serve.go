package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/gifweave/pkg/codec"
	"github.com/provide-io/gifweave/pkg/transfer"
	"github.com/provide-io/gifweave/pkg/wire"
)

// Serve is the child side of a ProcessWorker. It reads tasks from r,
// encodes them one at a time and writes each result to w using the ops
// transfer chain. It returns nil when r ends between tasks.
func Serve(r io.Reader, w io.Writer, encode EncodeFunc, ops uint64, logger hclog.Logger) error {
	if encode == nil {
		encode = codec.EncodeFrame
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	in := bufio.NewReader(r)
	out := bufio.NewWriter(w)

	logger.Debug("👂 Serving tasks", "transfer", transfer.OperationsToString(ops))
	served := 0
	for {
		task, err := wire.ReadTask(in)
		if errors.Is(err, io.EOF) {
			logger.Debug("👋 Input closed", "served", served)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading task: %w", err)
		}

		logger.Trace("⚙️ Encoding frame", "frame", task.Index, "size", fmt.Sprintf("%dx%d", task.Width, task.Height))
		res := safeEncode(encode, task, logger)
		if res.Err != nil {
			logger.Warn("⚠️ Frame failed", "frame", task.Index, "error", res.Err)
		}

		if err := wire.WriteResult(out, res, ops); err != nil {
			return fmt.Errorf("writing result of frame %d: %w", task.Index, err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flushing result of frame %d: %w", task.Index, err)
		}
		served++
	}
}
