package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvStorageDriver = "STORAGE_DRIVER"
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvSlotLedger    = "SLOT_LEDGER"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvDefaultTimezone      = "DEFAULT_TIMEZONE"
	EnvMaxReferenceAttempts = "MAX_REFERENCE_ATTEMPTS"
	EnvSeedSampleData       = "SEED_SAMPLE_DATA"
	EnvReleaseRetryInterval = "RELEASE_RETRY_INTERVAL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvOtelEnabled  = "OTEL_ENABLED"
	EnvOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)
