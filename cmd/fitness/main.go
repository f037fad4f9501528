package main

import (
	"context"
	"time"

	bookinghandler "fitstudio/internal/bookings/handler"
	bookingrepository "fitstudio/internal/bookings/repository"
	bookingservice "fitstudio/internal/bookings/service"
	bookingvalidator "fitstudio/internal/bookings/validator"
	classhandler "fitstudio/internal/classes/handler"
	classrepository "fitstudio/internal/classes/repository"
	"fitstudio/internal/classes/seed"
	classservice "fitstudio/internal/classes/service"
	classvalidator "fitstudio/internal/classes/validator"
	mongomigration "fitstudio/internal/migrations/mongo"
	postgresmigration "fitstudio/internal/migrations/postgres"
	"fitstudio/internal/reference"
	"fitstudio/internal/slots"
	"fitstudio/internal/timezone"
	"fitstudio/pkg/app"
	"fitstudio/pkg/clock"
	"fitstudio/pkg/config"
	"fitstudio/pkg/db/postgres"
	"fitstudio/pkg/events"
	"fitstudio/pkg/obs"
)

const (
	ServiceName    = "fitness"
	startupTimeout = 60 * time.Second
)

type stores struct {
	classes  classrepository.ClassRepository
	bookings bookingrepository.BookingRepository
	ledger   slots.Ledger
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Connect()
	cfg.Log.Info("Starting Fitness booking service")

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.OtelEnabled, ServiceName, cfg.OtelEndpoint)
	if err != nil {
		cfg.Log.Fatal("Failed to initialise tracing", "error", err)
	}

	converter, err := timezone.NewConverter(cfg.DefaultTimezone)
	if err != nil {
		cfg.Log.Fatal("Invalid default timezone", "timezone", cfg.DefaultTimezone, "error", err)
	}

	migrate(ctx, cfg)
	st := initStores(cfg)
	clk := clock.NewSystem()

	if cfg.SeedSampleData {
		created, err := seed.Run(ctx, st.classes, classvalidator.NewClassValidator(cfg.Log), clk, converter.Base(), cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to seed sample classes", "error", err)
		}
		cfg.Log.Info("Sample data seeded", "created", created)
	}

	publisher := initPublisher(cfg)

	releases := slots.NewReleaseQueue(st.ledger, cfg.ReleaseRetryInterval, cfg.WriteTimeout, cfg.Log)

	classService := classservice.NewClassService(st.classes, st.ledger, converter, cfg)
	bookingService := bookingservice.NewBookingService(
		st.bookings,
		st.classes,
		classService,
		st.ledger,
		releases,
		reference.NewGenerator(),
		converter,
		publisher,
		bookingvalidator.NewBookingValidator(cfg.Log),
		clk,
		cfg,
	)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		classhandler.NewClassHandler(classService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	)
	serverApp.OnShutdown(releases.Stop)
	serverApp.OnShutdown(func(context.Context) error { return publisher.Close() })
	serverApp.OnShutdown(app.Closer(shutdownTracer))
	serverApp.Run()
}

// migrate applies schema and indexes on start; both stores' migrations are
// idempotent and the unique indexes back booking correctness.
func migrate(ctx context.Context, cfg *config.Config) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		migrator, err := postgresmigration.NewMigrator(cfg.Client.Postgres, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to prepare Postgres migrations", "error", err)
		}
		if err := migrator.Up(ctx); err != nil {
			cfg.Log.Fatal("Postgres migration failed", "error", err)
		}
	default:
		db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
		if err := mongomigration.RunMigration(ctx, db, cfg.Log); err != nil {
			cfg.Log.Fatal("Mongo migration failed", "error", err)
		}
	}
}

func initStores(cfg *config.Config) stores {
	var st stores
	var db *postgres.DB

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db = postgres.NewDB(cfg.Client.Postgres)
		st.classes = classrepository.NewPostgresClassRepository(cfg, db)
		st.bookings = bookingrepository.NewPostgresBookingRepository(cfg, db)
	default:
		st.classes = classrepository.NewMongoClassRepository(cfg)
		st.bookings = bookingrepository.NewMongoBookingRepository(cfg)
	}

	switch cfg.SlotLedger {
	case config.LedgerMemory:
		st.ledger = slots.NewMemoryLedger(classrepository.CapacityLoader(st.classes, st.bookings.CountConfirmed))
	case config.StoragePostgres:
		st.ledger = slots.NewPostgresLedger(db, cfg.ReadTimeout, cfg.WriteTimeout)
	default:
		st.ledger = slots.NewMongoLedger(classrepository.Collection(cfg), cfg.ReadTimeout, cfg.WriteTimeout)
	}

	cfg.Log.Info("Stores initialized",
		"storage_driver", cfg.StorageDriver,
		"slot_ledger", cfg.SlotLedger,
	)
	return st
}

func initPublisher(cfg *config.Config) events.Publisher {
	eventsCfg, err := events.LoadConfig()
	if err != nil {
		cfg.Log.Fatal("Invalid events configuration", "error", err)
	}
	publisher, err := events.New(eventsCfg, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create event publisher", "error", err)
	}
	return publisher
}
