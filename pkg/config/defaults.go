package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "bookd"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultTrialPeriod        = 14 * 24 * time.Hour
	DefaultSweepInterval      = 5 * time.Minute
	DefaultCancellationWindow = 24 * time.Hour
	DefaultInvitationTTL      = 72 * time.Hour

	DefaultKafkaBrokers      = "localhost:9092"
	DefaultBookingEventTopic = "booking-events"
	DefaultWorkerEventTopic  = "worker-events"
	DefaultEventDLQTopic     = "booking-events-dlq"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
