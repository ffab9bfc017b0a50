package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout   = 10 * time.Second
	DBQueryTimeout        = 15 * time.Second
	DBHealthCheckTimeout  = 5 * time.Second
	DBConnMaxLifetime     = 1 * time.Hour
	DBConnMaxIdleTime     = 30 * time.Minute
	DBMaintenanceInterval = 1 * time.Hour
)

// Cache Timeouts
const (
	CacheConnectTimeout = 5 * time.Second
	CacheOpTimeout      = 2 * time.Second
)

// Token Lifetimes for one-time tokens delivered by email.
const (
	EmailVerificationTokenTTL = 24 * time.Hour
	PasswordResetTokenTTL     = 1 * time.Hour
)
