package main

import (
	"context"
	"time"

	mongoMigration "innkeep/internal/migrations/mongo"
	"innkeep/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, cfg); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
}
