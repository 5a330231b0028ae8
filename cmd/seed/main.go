package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"housemarket/internal/config"
	"housemarket/internal/logger"
	"housemarket/internal/repository"
	"housemarket/internal/seed"
)

func main() {
	cfg := config.Load()

	logg, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := repository.Open(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("store init", zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	logg.Info("generating sample listings", zap.Int("count", cfg.SeedCount))
	runner := seed.NewRunner(store.Users, store.Listings, seed.NewGenerator(time.Now().UnixNano()), logg)
	res, err := runner.Run(ctx, cfg.SeedOwnerUsername, cfg.SeedOwnerEmail, cfg.SeedCount)
	if err != nil {
		logg.Fatal("seed failed", zap.Error(err))
	}

	logg.Info("seed completed",
		zap.String("owner_id", res.OwnerID),
		zap.Int64("deleted", res.Deleted),
		zap.Int("inserted", res.Inserted))
}
