package main

import (
	"context"
	"flag"
	"log"
	"os"

	"COEAnalytics/internal/di"
	"COEAnalytics/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	seed := flag.String("seed", "", "CSV to load into the memory store at startup (overrides store.csv_path)")
	staticDir := flag.String("static", "", "directory of the built dashboard to serve (overrides server.static_dir)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *seed != "" {
		cfg.Store.CSVPath = *seed
	}
	if *staticDir != "" {
		cfg.Server.StaticDir = *staticDir
	}

	log.Printf("env=%s store=%s cache=%s kafka=%v", cfg.Environment, cfg.Store.Backend, cfg.Cache.Backend, cfg.Kafka.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// blocks until SIGINT/SIGTERM
	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
