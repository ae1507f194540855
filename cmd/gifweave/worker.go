package main

import (
	"os"

	"github.com/provide-io/gifweave/pkg/logging"
	"github.com/provide-io/gifweave/pkg/transfer"
	_ "github.com/provide-io/gifweave/pkg/transfer/compress"
	"github.com/provide-io/gifweave/pkg/worker"
	"github.com/spf13/cobra"
)

// newWorkerCmd is what process workers run when no separate worker binary
// is configured.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Serve encode tasks on stdin/stdout",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := transfer.StringToOperations(os.Getenv(worker.EnvTransfer))
			if err != nil {
				return err
			}
			logger := logging.NewLogger("gifweave.worker", logging.ResolveLevel(logLevel), os.Stderr).
				With("pid", os.Getpid())
			return worker.Serve(os.Stdin, os.Stdout, nil, ops, logger)
		},
	}
}
