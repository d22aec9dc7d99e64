package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "innkeep"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// A pay-later hold lives this long before the sweeper cancels it.
	DefaultHoldTTL = 24 * time.Hour

	DefaultSweepInterval  = 1 * time.Minute
	DefaultSweepBatchSize = 100

	// Bounded internal retry of the allocation scan after losing a
	// conditional update race, before exhaustion is surfaced.
	DefaultAllocateRetries = 1

	DefaultBookingEventsTopic = "booking-events"

	DefaultPaginationLimit = 100
)
