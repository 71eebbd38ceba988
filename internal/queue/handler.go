package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/store"
)

// ErrInvalidJob marks messages that can never succeed. They skip the retry
// queue.
var ErrInvalidJob = errors.New("invalid ingest job")

// IngestJob asks the worker to process every file stored below Prefix.
type IngestJob struct {
	JobID        string `json:"job_id"`
	Prefix       string `json:"prefix"`
	Instructions string `json:"instructions,omitempty"`
}

// Cleaner removes the uploaded files of a finished job.
type Cleaner interface {
	DeleteFolder(ctx context.Context, prefix string) error
}

// Handler runs ingest jobs against one graph store.
type Handler struct {
	Graph       *graph.GraphClient
	Store       store.GraphStorage
	Transformer graph.Transformer
	Loader      loader.DocumentLoader
	// Cleaner is optional.
	Cleaner Cleaner
}

// HandleIngest decodes body and runs the job. Per-file failures are part of
// the result; only run-level failures are returned as errors.
func (h *Handler) HandleIngest(ctx context.Context, body []byte) (*graph.RunResult, error) {
	var job IngestJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if job.JobID == "" || job.Prefix == "" {
		return nil, fmt.Errorf("%w: job_id and prefix are required", ErrInvalidJob)
	}

	docs, skipped, err := h.Loader.Load(ctx, job.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load files of job %s: %w", job.JobID, err)
	}
	for _, s := range skipped {
		logger.Warn("[Queue] Skipping unreadable job file", "job_id", job.JobID, "file", s.Filename, "err", s.Err)
	}
	logger.Info("[Queue] Processing ingest job", "job_id", job.JobID, "files", len(docs), "skipped", len(skipped))

	result, err := h.Graph.WithInstructions(job.Instructions).ProcessFiles(ctx, docs, h.Store, h.Transformer)
	if err != nil {
		return result, err
	}

	if h.Cleaner != nil {
		if err := h.Cleaner.DeleteFolder(ctx, job.Prefix); err != nil {
			logger.Warn("[Queue] Failed to delete job files", "job_id", job.JobID, "err", err)
		}
	}

	logger.Info(
		"[Queue] Ingest job done",
		"job_id", job.JobID,
		"nodes", result.Statistics.Nodes,
		"relationships", result.Statistics.Relationships,
	)
	return result, nil
}
