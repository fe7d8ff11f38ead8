package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bioshield-iot/bioshield-monitor/internal/log"
	"github.com/bioshield-iot/bioshield-monitor/internal/realtime"
	"github.com/bioshield-iot/bioshield-monitor/internal/station"
	"github.com/bioshield-iot/bioshield-monitor/internal/telemetry"
	"github.com/bioshield-iot/bioshield-monitor/services/api/config"
	"github.com/bioshield-iot/bioshield-monitor/services/api/db"
	httpserver "github.com/bioshield-iot/bioshield-monitor/services/api/http"
	"github.com/bioshield-iot/bioshield-monitor/services/api/refresh"
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

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	live, err := realtime.NewPGStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("realtime store error: %v", err)
	}
	defer live.Close()

	aggregator := telemetry.New(live, logger)
	if err := aggregator.Start(ctx); err != nil {
		logger.Warnw("live feed unavailable, serving without realtime data", "error", err)
	}
	defer aggregator.Stop()

	resolver := station.NewResolver(station.Curated, logger)
	refresher := refresh.New(store, resolver, cfg.RefreshInterval, logger)
	if err := refresher.Start(ctx); err != nil {
		log.Fatalf("refresher error: %v", err)
	}
	defer refresher.Stop()

	srv := httpserver.New(cfg, refresher, store, aggregator)
	logger.Infof("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
