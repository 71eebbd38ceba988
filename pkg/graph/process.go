package graph

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/OFFIS-RIT/kgraph/internal/util"
	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// ChunkError records a chunk that contributed nothing to the graph, either
// because extraction failed or because its fragment could not be merged.
type ChunkError struct {
	Index int
	Err   error
}

func (e ChunkError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index int    `json:"chunk"`
		Err   string `json:"error"`
	}{e.Index, errString(e.Err)})
}

// FileReport is the outcome of one attempted file. Err is set when the file
// was skipped as a whole; ChunkErrors lists chunks skipped within it.
type FileReport struct {
	Filename    string
	FileType    loader.FileType
	Chunks      int
	Fragments   int
	Err         error
	ChunkErrors []ChunkError
}

func (r FileReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Filename    string          `json:"filename"`
		FileType    loader.FileType `json:"file_type"`
		Chunks      int             `json:"chunks"`
		Fragments   int             `json:"fragments"`
		Err         string          `json:"error,omitempty"`
		ChunkErrors []ChunkError    `json:"chunk_errors,omitempty"`
	}{r.Filename, r.FileType, r.Chunks, r.Fragments, errString(r.Err), r.ChunkErrors})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// run holds the state shared by all files of one run.
type run struct {
	g       *GraphClient
	store   store.GraphStorage
	t       Transformer
	writeMu sync.Mutex
}

// extractChunk runs the transformer on one chunk with a timeout per attempt
// and bounded retries. A nil fragment with a nil error means the chunk
// yielded no graph elements.
func (r *run) extractChunk(ctx context.Context, filename string, index int, text string) (*common.Fragment, error) {
	fragment, err := util.RetryWithContext(ctx, r.g.maxRetries, func(ctx context.Context) (*common.Fragment, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.g.extractTimeout)
		defer cancel()
		return r.t.Transform(callCtx, text, r.g.instructions)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d of %s: %w", ErrGraphExtraction, index, filename, err)
	}
	if fragment.Empty() {
		return nil, nil
	}

	if fragment.ID == "" {
		if fragment.ID, err = gonanoid.New(); err != nil {
			return nil, fmt.Errorf("failed to generate ID for fragment: %w", err)
		}
	}
	docID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID for document: %w", err)
	}
	fragment.Source = &common.Document{
		ID:       docID,
		Filename: filename,
		Index:    index,
		Text:     text,
	}
	return fragment, nil
}

// merge writes a fragment through to the store. Writes of one run never
// overlap.
func (r *run) merge(ctx context.Context, fragment *common.Fragment) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.store.SaveFragment(ctx, *fragment, r.g.includeSource); err != nil {
		return fmt.Errorf("%w: save fragment %s: %w", ErrStore, fragment.ID, err)
	}
	return nil
}

// processFile extracts, chunks and transforms one document, merging every
// fragment as soon as it is available. It never fails; all problems end up
// in the report.
func (r *run) processFile(ctx context.Context, doc loader.Document) ([]common.Fragment, FileReport) {
	report := FileReport{Filename: doc.Filename, FileType: doc.FileType}

	text, err := doc.Text()
	if err != nil {
		logger.Warn("[Graph] Skipping file", "file", doc.Filename, "err", err)
		report.Err = err
		return nil, report
	}

	chunks, err := r.g.split(text)
	if err != nil {
		logger.Warn("[Graph] Failed to chunk file", "file", doc.Filename, "err", err)
		report.Err = err
		return nil, report
	}
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		logger.Info("[Graph] File has no text", "file", doc.Filename)
		return nil, report
	}
	logger.Debug("[Graph] Processing file", "file", doc.Filename, "chunks", len(chunks))

	var (
		eg        errgroup.Group
		mu        sync.Mutex
		fragments = make([]*common.Fragment, len(chunks))
	)
	eg.SetLimit(r.g.parallelChunks)

	for i, text := range chunks {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fragment, err := r.extractChunk(ctx, doc.Filename, i, text)
			if err == nil && fragment != nil {
				err = r.merge(ctx, fragment)
			}
			if err != nil {
				logger.Warn("[Graph] Skipping chunk", "file", doc.Filename, "chunk", i, "err", err)
				mu.Lock()
				report.ChunkErrors = append(report.ChunkErrors, ChunkError{Index: i, Err: err})
				mu.Unlock()
				return nil
			}
			fragments[i] = fragment
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]common.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f != nil {
			out = append(out, *f)
		}
	}
	slices.SortFunc(report.ChunkErrors, func(a, b ChunkError) int {
		return cmp.Compare(a.Index, b.Index)
	})
	report.Fragments = len(out)
	return out, report
}

