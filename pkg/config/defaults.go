package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fairway"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// How long a per-cart commit lock may be held before the TTL index
	// reaps it. Generous compared to a single transaction, tight enough
	// that a crashed committer does not block the cart for long.
	DefaultLockTTL = 10 * time.Second

	// Current club durations. Earlier seasons ran different charge splits,
	// so these are deliberately configuration, not code.
	DefaultPlayMinutes9    = 135
	DefaultChargeMinutes9  = 30
	DefaultPlayMinutes18   = 270
	DefaultChargeMinutes18 = 60

	// Prices in NOK.
	DefaultMemberPrice9        = 200
	DefaultMemberPrice18       = 350
	DefaultNonMemberPrice9     = 250
	DefaultNonMemberPrice18    = 425
	DefaultDoctorsNoteDiscount = 50

	DefaultMaxAdvanceDays = 7

	DefaultRentalEventsTopic    = "rental-events"
	DefaultRentalEventsDLQTopic = "rental-events-dlq"

	DefaultPaginationLimit = 100
)
