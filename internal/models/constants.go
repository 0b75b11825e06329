package models

import "time"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	// DefaultSessionTTL how long a login stays valid
	DefaultSessionTTL = 7 * 24 * time.Hour

	// DefaultMaxBookingDays how far ahead a stay may start
	DefaultMaxBookingDays = 365

	// DefaultMaxNights longest single stay
	DefaultMaxNights = 30

	// RoomsCacheTTL lifetime of the in-memory room catalog
	RoomsCacheTTL = 30 * time.Minute

	// SheetsCacheTTL lifetime of the sheet row index cache
	SheetsCacheTTL = time.Hour

	// WorkerQueueSize capacity of the in-memory sync queue
	WorkerQueueSize = 1000

	// LoginAttemptsLimit failed logins allowed per window
	LoginAttemptsLimit = 5

	// LoginAttemptsWindow throttle window for logins
	LoginAttemptsWindow = 15 * time.Minute
)
