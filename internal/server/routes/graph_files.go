package routes

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/OFFIS-RIT/kgraph/internal/queue"
	"github.com/OFFIS-RIT/kgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type postGraphFilesResponse struct {
	Message string           `json:"message"`
	JobID   string           `json:"job_id,omitempty"`
	Skipped []string         `json:"skipped,omitempty"`
	Result  *graph.RunResult `json:"result,omitempty"`
}

// PostGraphFilesHandler adds uploaded files to the graph. With async=true
// the files are stored in S3 and handed to the worker; otherwise the run
// happens within the request.
func PostGraphFilesHandler(c echo.Context) error {
	type postGraphFilesBody struct {
		Instructions string `form:"instructions" validate:"max=20000"`
		Async        bool   `form:"async"`
	}

	data := new(postGraphFilesBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, postGraphFilesResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, postGraphFilesResponse{Message: "Invalid request body"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, postGraphFilesResponse{Message: "Invalid request body"})
	}

	var (
		uploads []*multipart.FileHeader
		skipped []string
	)
	for _, file := range form.File["files"] {
		if loader.IsSupported(file.Filename) {
			uploads = append(uploads, file)
		} else {
			skipped = append(skipped, file.Filename)
		}
	}
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, postGraphFilesResponse{
			Message: "No supported files (.txt, .pdf, .docx) uploaded",
			Skipped: skipped,
		})
	}

	app := c.(*middleware.AppContext).App
	if data.Async {
		if !app.Async() {
			return c.JSON(http.StatusBadRequest, postGraphFilesResponse{Message: "Asynchronous ingest is not configured"})
		}
		return enqueueFiles(c, app, uploads, skipped, data.Instructions)
	}

	docs := make([]loader.Document, 0, len(uploads))
	for _, file := range uploads {
		content, err := readUpload(file)
		if err != nil {
			return c.JSON(http.StatusBadRequest, postGraphFilesResponse{Message: "Invalid request body"})
		}
		docs = append(docs, loader.NewDocument(file.Filename, content))
	}

	result, err := app.Graph.WithInstructions(data.Instructions).ProcessFiles(c.Request().Context(), docs, app.Store, app.Transformer)
	if err != nil {
		logger.Error("[Server] Graph run failed", "err", err)
		return c.JSON(http.StatusInternalServerError, postGraphFilesResponse{
			Message: "Graph run failed",
			Skipped: skipped,
			Result:  result,
		})
	}

	return c.JSON(http.StatusOK, postGraphFilesResponse{
		Message: "Files processed",
		Skipped: skipped,
		Result:  result,
	})
}

func enqueueFiles(c echo.Context, app *middleware.App, uploads []*multipart.FileHeader, skipped []string, instructions string) error {
	ctx := c.Request().Context()

	jobID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postGraphFilesResponse{Message: "Internal server error"})
	}
	prefix := "jobs/" + jobID

	for _, file := range uploads {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, postGraphFilesResponse{Message: "Invalid request body"})
		}
		_, err = app.Bucket.PutFile(ctx, prefix, file.Filename, src)
		src.Close()
		if err != nil {
			logger.Error("[Server] Failed to upload file", "file", file.Filename, "err", err)
			return c.JSON(http.StatusInternalServerError, postGraphFilesResponse{Message: "Failed to store files"})
		}
	}

	body, err := json.Marshal(queue.IngestJob{
		JobID:        jobID,
		Prefix:       prefix,
		Instructions: instructions,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postGraphFilesResponse{Message: "Internal server error"})
	}
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, body); err != nil {
		logger.Error("[Server] Failed to enqueue ingest job", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, postGraphFilesResponse{Message: "Failed to enqueue job"})
	}

	logger.Info("[Server] Ingest job queued", "job_id", jobID, "files", len(uploads))
	return c.JSON(http.StatusAccepted, postGraphFilesResponse{
		Message: "Files queued",
		JobID:   jobID,
		Skipped: skipped,
	})
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
