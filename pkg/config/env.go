package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLockTTL = "RENTAL_LOCK_TTL"

	EnvPlayMinutes9    = "PLAY_MINUTES_9"
	EnvChargeMinutes9  = "CHARGE_MINUTES_9"
	EnvPlayMinutes18   = "PLAY_MINUTES_18"
	EnvChargeMinutes18 = "CHARGE_MINUTES_18"

	EnvMemberPrice9        = "MEMBER_PRICE_9"
	EnvMemberPrice18       = "MEMBER_PRICE_18"
	EnvNonMemberPrice9     = "NON_MEMBER_PRICE_9"
	EnvNonMemberPrice18    = "NON_MEMBER_PRICE_18"
	EnvDoctorsNoteDiscount = "DOCTORS_NOTE_DISCOUNT"

	EnvMaxAdvanceDays = "MAX_ADVANCE_DAYS"

	EnvRentalEventsTopic    = "RENTAL_EVENTS_TOPIC"
	EnvRentalEventsDLQTopic = "RENTAL_EVENTS_DLQ_TOPIC"
)
