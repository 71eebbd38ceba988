package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/graph"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headingStyle = lipgloss.NewStyle().Bold(true)

// promptInstructions asks whether custom extraction instructions should be
// used and reads them up to the first empty line.
func promptInstructions(in io.Reader, out io.Writer) (string, error) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Would you like to provide custom instructions for the knowledge graph? (yes/no)")
	if !scanner.Scan() {
		return "", scanner.Err()
	}
	if answer := strings.ToLower(strings.TrimSpace(scanner.Text())); answer != "yes" && answer != "y" {
		return "", nil
	}

	fmt.Fprintln(out, "\nEnter your instructions below (press Enter twice when done):")
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func printStatistics(w io.Writer, stats common.Statistics) {
	fmt.Fprintln(w, headingStyle.Render("Knowledge Graph Statistics:"))
	fmt.Fprintf(w, "Total Nodes: %d\n", stats.Nodes)
	fmt.Fprintf(w, "Total Relationships: %d\n", stats.Relationships)
	fmt.Fprintf(w, "\nNode Types: %s\n", strings.Join(stats.NodeTypes, ", "))
	fmt.Fprintf(w, "Relationship Types: %s\n", strings.Join(stats.RelationshipTypes, ", "))
}

// printReport writes the per-file outcome of a run followed by the graph
// statistics.
func printReport(w io.Writer, result *graph.RunResult) {
	rows := make([][]string, 0, len(result.Files))
	failedChunks := 0
	for _, f := range result.Files {
		status := "ok"
		switch {
		case f.Err != nil:
			status = "skipped: " + f.Err.Error()
		case len(f.ChunkErrors) > 0:
			status = fmt.Sprintf("%d chunk(s) failed", len(f.ChunkErrors))
			failedChunks += len(f.ChunkErrors)
		}
		rows = append(rows, []string{
			f.Filename,
			strconv.Itoa(f.Chunks),
			strconv.Itoa(f.Fragments),
			status,
		})
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FILE", "CHUNKS", "FRAGMENTS", "STATUS").
		Rows(rows...).
		String())
	if failedChunks > 0 {
		fmt.Fprintf(w, "%d chunk(s) contributed nothing to the graph.\n", failedChunks)
	}
	fmt.Fprintln(w)
	printStatistics(w, result.Statistics)
}

func edgesTable(edges []common.Edge) string {
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{
			e.Source.ID + " (" + e.Source.Type + ")",
			e.Type,
			e.Target.ID + " (" + e.Target.Type + ")",
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SOURCE", "RELATIONSHIP", "TARGET").
		Rows(rows...).
		String()
}
