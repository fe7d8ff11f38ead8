package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bioshield-iot/bioshield-monitor/internal/log"
	"github.com/bioshield-iot/bioshield-monitor/internal/realtime"
	"github.com/bioshield-iot/bioshield-monitor/services/bridge/config"
	httpserver "github.com/bioshield-iot/bioshield-monitor/services/bridge/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	log.Init(cfg.Debug)
	defer log.Sync()
	logger := log.GetSugaredLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := realtime.NewPGStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("realtime store error: %v", err)
	}
	defer store.Close()

	srv := httpserver.New(cfg, store, logger)
	logger.Infof("ingestion bridge listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
