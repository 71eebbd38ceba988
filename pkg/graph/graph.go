package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/store"

	"golang.org/x/sync/errgroup"
)

// RunResult is the outcome of a run.
//
// Results holds the fragments merged per file, in input order, leaving out
// files that contributed nothing. Files reports every attempted file.
// ResetErr is the ignored error of the initial reset, if any.
type RunResult struct {
	Results    [][]common.Fragment `json:"results"`
	Files      []FileReport        `json:"files"`
	ResetErr   error               `json:"-"`
	Statistics common.Statistics   `json:"statistics"`
}

// Run builds the graph from a filename to content mapping. Files are
// processed in filename order.
func (g *GraphClient) Run(ctx context.Context, files map[string][]byte, s store.GraphStorage, t Transformer) (*RunResult, error) {
	return g.ProcessFiles(ctx, loader.DocumentsFromMap(files), s, t)
}

// ProcessFiles clears the store and rebuilds the graph from files.
//
// Every file is attempted. Files that cannot be read and chunks that cannot
// be extracted or merged are skipped and reported in RunResult.Files. The
// returned error is reserved for fatal conditions: missing collaborators, a
// failed run lock, or ctx being done. When ctx ends mid run the partial
// result is returned together with the context error.
func (g *GraphClient) ProcessFiles(ctx context.Context, files []loader.Document, s store.GraphStorage, t Transformer) (*RunResult, error) {
	if s == nil || t == nil {
		return nil, ErrNilCollaborator
	}

	var res *RunResult
	exec := func(ctx context.Context) error {
		var err error
		res, err = g.processFiles(ctx, files, s, t)
		return err
	}

	if err := g.locker.Lock(ctx, exec); err != nil {
		if res != nil {
			return res, err
		}
		return nil, fmt.Errorf("failed to lock graph run: %w", err)
	}
	return res, nil
}

func (g *GraphClient) processFiles(ctx context.Context, files []loader.Document, s store.GraphStorage, t Transformer) (*RunResult, error) {
	r := &run{g: g, store: s, t: t}
	res := &RunResult{}

	logger.Info("[Graph] Processing", "total_files", len(files), "parallel_files", g.parallelFiles, "parallel_chunks", g.parallelChunks)

	res.ResetErr = g.Reset(ctx, s)

	var (
		eg        errgroup.Group
		fragments = make([][]common.Fragment, len(files))
		reports   = make([]FileReport, len(files))
	)
	eg.SetLimit(g.parallelFiles)
	for i, doc := range files {
		eg.Go(func() error {
			if ctx.Err() != nil {
				reports[i] = FileReport{Filename: doc.Filename, FileType: doc.FileType, Err: ctx.Err()}
				return nil
			}
			fragments[i], reports[i] = r.processFile(ctx, doc)
			return nil
		})
	}
	_ = eg.Wait()

	res.Files = reports
	res.Results = make([][]common.Fragment, 0, len(files))
	for _, f := range fragments {
		if len(f) > 0 {
			res.Results = append(res.Results, f)
		}
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("[Graph] Run canceled", "err", err)
		return res, err
	}

	res.Statistics = g.Statistics(ctx, s)
	logger.Info(
		"[Graph] Graph build completed",
		"files", len(files),
		"files_with_fragments", len(res.Results),
		"nodes", res.Statistics.Nodes,
		"relationships", res.Statistics.Relationships,
	)
	return res, nil
}
