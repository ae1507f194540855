// Command gifweave-worker encodes frames for a gifweave process pool. It
// reads tasks on stdin and writes results on stdout until stdin closes.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/provide-io/gifweave/pkg/logging"
	"github.com/provide-io/gifweave/pkg/transfer"
	_ "github.com/provide-io/gifweave/pkg/transfer/compress"
	"github.com/provide-io/gifweave/pkg/worker"
)

const (
	exitIOError = 2
	exitPanic   = 101
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(exitPanic)
		}
	}()

	logger := logging.NewLogger("gifweave.worker", logging.GetLogLevel(), os.Stderr).With("pid", os.Getpid())

	ops, err := transfer.StringToOperations(os.Getenv(worker.EnvTransfer))
	if err != nil {
		logger.Error("❌ Invalid transfer chain", "error", err)
		os.Exit(1)
	}

	if err := worker.Serve(os.Stdin, os.Stdout, nil, ops, logger); err != nil {
		logger.Error("❌ Worker stopped", "error", err)
		os.Exit(exitIOError)
	}
}
