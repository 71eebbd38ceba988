package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/kgraph/internal/config"
	"github.com/OFFIS-RIT/kgraph/internal/server"
	"github.com/OFFIS-RIT/kgraph/internal/util"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Init(ctx, cfg); err != nil {
		logger.Fatal("Server failed", "err", err)
	}
}
