package main

import (
	"context"
	"flag"
	"time"

	mongomigration "fitstudio/internal/migrations/mongo"
	postgresmigration "fitstudio/internal/migrations/postgres"
	"fitstudio/pkg/config"
)

const JobName = "fitness-migration"

func main() {
	down := flag.Bool("down", false, "roll back the latest Postgres migration")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.Connect()
	defer cfg.GracefulShutdown()
	cfg.Log.Info("Starting migration job", "storage_driver", cfg.StorageDriver)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		migrator, err := postgresmigration.NewMigrator(cfg.Client.Postgres, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to prepare migrations", "error", err)
		}
		if *down {
			err = migrator.Down(ctx)
		} else {
			err = migrator.Up(ctx)
		}
		if err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	default:
		if *down {
			cfg.Log.Fatal("Mongo migrations cannot be rolled back")
		}
		if err := mongomigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}
