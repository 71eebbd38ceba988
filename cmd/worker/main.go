package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/kgraph/internal/config"
	"github.com/OFFIS-RIT/kgraph/internal/queue"
	"github.com/OFFIS-RIT/kgraph/internal/setup"
	"github.com/OFFIS-RIT/kgraph/internal/storage"
	"github.com/OFFIS-RIT/kgraph/internal/util"
	s3loader "github.com/OFFIS-RIT/kgraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}
	if err := cfg.RequireS3(); err != nil {
		logger.Fatal("Worker needs S3", "err", err)
	}

	pipeline, err := setup.NewPipeline(ctx, cfg)
	if err != nil {
		logger.Fatal("Could not set up graph pipeline", "err", err)
	}
	defer pipeline.Close(context.Background())

	// Init s3 client
	client, err := storage.NewS3Client(ctx, cfg.S3)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	handler := &queue.Handler{
		Graph:       pipeline.Graph,
		Store:       pipeline.Store,
		Transformer: pipeline.Transformer,
		Loader:      s3loader.NewS3LoaderWithClient(cfg.S3.Bucket, client),
		Cleaner:     storage.NewBucket(cfg.S3.Bucket, client),
	}

	// Init rabbitmq
	conn, err := queue.Dial(ctx, cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	err = queue.Consume(ctx, ch, queue.IngestQueue, func(ctx context.Context, body []byte) error {
		_, err := handler.HandleIngest(ctx, body)
		return err
	}, pipeline.AI)
	if err != nil {
		logger.Error("Consumer stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
