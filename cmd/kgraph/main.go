package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/kgraph/internal/config"
	"github.com/OFFIS-RIT/kgraph/internal/setup"
	"github.com/OFFIS-RIT/kgraph/internal/util"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/logger/console"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "kgraph",
		Short:         "Build a knowledge graph from documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			util.LoadEnv()

			consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug: util.GetEnvBool("DEBUG", false),
			})
			logger.Init(consoleLogger)

			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	pipeline := func(ctx context.Context) (*setup.Pipeline, error) {
		return setup.NewPipeline(ctx, cfg)
	}
	root.AddCommand(
		newIngestCmd(pipeline),
		newStatsCmd(pipeline),
		newEdgesCmd(pipeline),
		newResetCmd(pipeline),
	)
	return root
}

// run executes the CLI with args and returns the process exit code. Errors
// are printed to stderr since the root command silences cobra's own output.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
