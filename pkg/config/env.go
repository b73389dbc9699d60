package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret           = "JWT_SECRET"
	EnvCustomerTokenSecret = "CUSTOMER_TOKEN_SECRET"
	EnvBillingWebhookSecret = "BILLING_WEBHOOK_SECRET"

	EnvTrialPeriod        = "TRIAL_PERIOD"
	EnvSweepInterval      = "SWEEP_INTERVAL"
	EnvCancellationWindow = "CANCELLATION_WINDOW"
	EnvInvitationTTL      = "INVITATION_TTL"

	EnvKafkaBrokers      = "KAFKA_BROKERS"
	EnvBookingEventTopic = "BOOKING_EVENT_TOPIC"
	EnvWorkerEventTopic  = "WORKER_EVENT_TOPIC"
	EnvEventDLQTopic     = "EVENT_DLQ_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
