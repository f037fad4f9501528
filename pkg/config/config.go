package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fitstudio/pkg/client"
	"fitstudio/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	StorageDriver string
	SlotLedger    string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresDSN string

	Port string

	DefaultTimezone      string
	MaxReferenceAttempts int
	SeedSampleData       bool
	ReleaseRetryInterval time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	OtelEnabled  bool
	OtelEndpoint string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads .env (when present) and the process environment, then exits
// through Log.Fatal if the result does not validate.
func Load(serviceName string) *Config {
	dotenvErr := godotenv.Load(".env")

	cfg := FromEnv(serviceName)
	if dotenvErr != nil && !os.IsNotExist(dotenvErr) {
		cfg.Log.Warn("Failed to load .env file", "error", dotenvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func FromEnv(serviceName string) *Config {
	storage := strings.ToLower(getEnvStr(EnvStorageDriver, DefaultStorageDriver))

	return &Config{
		StorageDriver: storage,
		SlotLedger:    strings.ToLower(getEnvStr(EnvSlotLedger, storage)),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		PostgresDSN: getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),

		Port: getEnvStr(EnvPort, DefaultPort),

		DefaultTimezone:      getEnvStr(EnvDefaultTimezone, DefaultTimezone),
		MaxReferenceAttempts: getEnvNum(EnvMaxReferenceAttempts, DefaultMaxReferenceAttempts),
		SeedSampleData:       getEnvBool(EnvSeedSampleData, DefaultSeedSampleData),
		ReleaseRetryInterval: getEnvDuration(EnvReleaseRetryInterval, DefaultReleaseRetryInterval),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		OtelEnabled:  getEnvBool(EnvOtelEnabled, DefaultOtelEnabled),
		OtelEndpoint: getEnvStr(EnvOtelEndpoint, DefaultOtelEndpoint),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

// Connect opens the store selected by StorageDriver.
func (cfg *Config) Connect() {
	switch cfg.StorageDriver {
	case StoragePostgres:
		cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, cfg.MongoConnTimeout)
	default:
		cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageDriver {
	case StorageMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	case StoragePostgres:
		if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.PostgresDSN) {
			errors = append(errors, fmt.Sprintf("PostgresDSN must start with 'postgres://' or 'postgresql://', got: %s", redactURI(cfg.PostgresDSN)))
		}
	default:
		errors = append(errors, fmt.Sprintf("StorageDriver must be one of [mongo postgres], got: %s", cfg.StorageDriver))
	}

	switch cfg.SlotLedger {
	case LedgerMemory:
	case StorageMongo, StoragePostgres:
		if cfg.SlotLedger != cfg.StorageDriver {
			errors = append(errors, fmt.Sprintf("SlotLedger %q requires StorageDriver %q, got: %s", cfg.SlotLedger, cfg.SlotLedger, cfg.StorageDriver))
		}
	default:
		errors = append(errors, fmt.Sprintf("SlotLedger must be one of [memory mongo postgres], got: %s", cfg.SlotLedger))
	}

	if strings.TrimSpace(cfg.DefaultTimezone) == "" {
		errors = append(errors, "DefaultTimezone cannot be empty")
	}
	if cfg.MaxReferenceAttempts < 1 || cfg.MaxReferenceAttempts > MaxReferenceAttemptsLimit {
		errors = append(errors, fmt.Sprintf("MaxReferenceAttempts must be between 1 and %d, got: %d", MaxReferenceAttemptsLimit, cfg.MaxReferenceAttempts))
	}

	if cfg.ReleaseRetryInterval <= 0 {
		errors = append(errors, fmt.Sprintf("ReleaseRetryInterval must be positive, got: %s", cfg.ReleaseRetryInterval))
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.OtelEnabled && cfg.OtelEndpoint == "" {
		errors = append(errors, "OtelEndpoint cannot be empty when tracing is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"storage_driver", cfg.StorageDriver,
		"slot_ledger", cfg.SlotLedger,
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_dsn", redactURI(cfg.PostgresDSN),
		"port", cfg.Port,
		"default_timezone", cfg.DefaultTimezone,
		"max_reference_attempts", cfg.MaxReferenceAttempts,
		"seed_sample_data", cfg.SeedSampleData,
		"release_retry_interval", cfg.ReleaseRetryInterval,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"otel_enabled", cfg.OtelEnabled,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

var credentialRegex = regexp.MustCompile(`^([a-z+]+://)[^:@/]+:[^@]+@`)

func redactURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
