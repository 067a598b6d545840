package main

import (
	"context"
	"log"
	"os"

	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server"
	"github.com/romcom/romcom-auth/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Env, os.Stdout)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", logging.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}

}
