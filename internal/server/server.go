package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/OFFIS-RIT/kgraph/internal/config"
	"github.com/OFFIS-RIT/kgraph/internal/queue"
	mid "github.com/OFFIS-RIT/kgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/kgraph/internal/setup"
	"github.com/OFFIS-RIT/kgraph/internal/storage"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New creates the echo instance with all middleware and routes.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1G"))

	RegisterRoutes(e)
	return e
}

// Init builds the server from cfg and serves until ctx is canceled.
func Init(ctx context.Context, cfg *config.Config) error {
	pipeline, err := setup.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close(context.Background())

	app := &mid.App{
		Graph:        pipeline.Graph,
		Store:        pipeline.Store,
		Transformer:  pipeline.Transformer,
		MasterAPIKey: cfg.Server.MasterAPIKey,
	}

	if cfg.Server.AuthURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.Server.AuthURL + "/jwks"})
		if err != nil {
			return fmt.Errorf("failed to load jwks keys: %w", err)
		}
		app.Keyfunc = k.Keyfunc
	}

	if err := cfg.RequireS3(); err == nil {
		que, err := queue.Dial(ctx, cfg.Queue)
		if err != nil {
			return err
		}
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			return fmt.Errorf("failed to open channel: %w", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
			return err
		}

		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return err
		}
		app.Queue = ch
		app.Bucket = storage.NewBucket(cfg.S3.Bucket, client)
	} else {
		logger.Info("[Server] Asynchronous ingest disabled", "reason", err)
	}

	e := New(app)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("[Server] Starting server", "port", cfg.Server.Port)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Server] Failed to shutdown server", "err", err)
	}
	return nil
}
