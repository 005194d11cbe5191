package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/fluxorio/todolist/pkg/app"
	"github.com/fluxorio/todolist/pkg/fluxor"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file (TODOLIST_* env vars override it)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	mainVerticle, err := fluxor.NewMainVerticle(context.Background(), logger)
	if err != nil {
		log.Fatalf("Failed to create runtime: %v", err)
	}

	if _, err := mainVerticle.DeployVerticle(app.NewTodoVerticle(cfg, logger)); err != nil {
		logger.Errorf("Failed to start todo service: %v", err)
		_ = mainVerticle.Stop()
		os.Exit(1)
	}

	if err := mainVerticle.Start(); err != nil {
		logger.Errorf("Shutdown finished with errors: %v", err)
		os.Exit(1)
	}
}
