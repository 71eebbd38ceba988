package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/kgraph/pkg/graph"

	"github.com/spf13/cobra"
)

func newStatsCmd(newPipeline pipelineFunc) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print node and relationship counts of the stored graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close(context.Background())

			stats := p.Graph.Statistics(cmd.Context(), p.Store)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			printStatistics(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEdgesCmd(newPipeline pipelineFunc) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "edges",
		Short: "Print a sample of stored relationships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch format {
			case "table", "json", "dot":
			default:
				return fmt.Errorf("unknown format %q (table, json, dot)", format)
			}

			p, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close(context.Background())

			edges := p.Graph.SampleEdges(cmd.Context(), p.Store, limit)
			switch format {
			case "json":
				return writeJSON(out, edges)
			case "dot":
				_, err := fmt.Fprint(out, graph.RenderDOT(edges))
				return err
			default:
				fmt.Fprintln(out, edgesTable(edges))
				return nil
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "maximum number of edges, negative for all")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or dot")
	return cmd
}

func newResetCmd(newPipeline pipelineFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every node and relationship",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close(context.Background())

			if err := p.Graph.Reset(cmd.Context(), p.Store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Graph reset.")
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
