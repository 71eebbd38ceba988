package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/OFFIS-RIT/kgraph/internal/setup"
	loaderio "github.com/OFFIS-RIT/kgraph/pkg/loader/io"

	"github.com/spf13/cobra"
)

type pipelineFunc func(ctx context.Context) (*setup.Pipeline, error)

// defaultDataDir is read when ingest gets no directory.
const defaultDataDir = "./example data"

func newIngestCmd(newPipeline pipelineFunc) *cobra.Command {
	var (
		instructions     string
		instructionsFile string
		interactive      bool
		recursive        bool
		includeSource    bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Reset the graph and build it from the .txt, .pdf and .docx files in dir",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			dir := defaultDataDir
			if len(args) == 1 {
				dir = args[0]
			}

			if instructionsFile != "" {
				data, err := os.ReadFile(instructionsFile)
				if err != nil {
					return fmt.Errorf("failed to read instructions file: %w", err)
				}
				instructions = string(data)
			}
			if interactive {
				custom, err := promptInstructions(cmd.InOrStdin(), out)
				if err != nil {
					return err
				}
				if custom != "" {
					instructions = custom
				}
			}

			var opts []loaderio.IOLoaderOption
			if recursive {
				opts = append(opts, loaderio.WithRecursive())
			}
			docs, skipped, err := loaderio.NewIOLoader(opts...).Load(ctx, dir)
			if err != nil {
				return err
			}
			for _, s := range skipped {
				fmt.Fprintf(out, "Skipped file: %s (%v)\n", s.Filename, s.Err)
			}
			if len(docs) == 0 {
				return fmt.Errorf("no supported files found in %s (supported: .txt, .pdf, .docx)", dir)
			}
			for _, doc := range docs {
				fmt.Fprintf(out, "Loaded file: %s\n", doc.Filename)
			}

			p, err := newPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close(context.Background())

			g := p.Graph.WithInstructions(strings.TrimSpace(instructions))
			if cmd.Flags().Changed("include-source") {
				g = g.WithIncludeSource(includeSource)
			}

			fmt.Fprintf(out, "\nProcessing %d files...\n", len(docs))
			result, err := g.ProcessFiles(ctx, docs, p.Store, p.Transformer)
			if result != nil {
				printReport(out, result)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&instructions, "instructions", "", "custom extraction instructions")
	cmd.Flags().StringVar(&instructionsFile, "instructions-file", "", "read extraction instructions from a file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask for custom instructions before the run")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "include files in subdirectories")
	cmd.Flags().BoolVar(&includeSource, "include-source", true, "store source Document nodes with MENTIONS relationships")
	cmd.MarkFlagsMutuallyExclusive("instructions", "instructions-file")
	return cmd
}
