// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the
// application. These constants provide sensible defaults for configuration
// settings, establish boundaries for resource usage, and define security
// parameters. Changes to these values may significantly impact application
// behavior, performance, and security.
package constants

// Default Configuration Values define fallback settings when not specified in configuration.
// These constants provide sensible defaults for core application settings.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultDBMaxConnections is the default maximum number of database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default minimum number of database connections.
	DefaultDBMinConnections = 5

	// DefaultRedisAddr is the default Redis address for the revocation cache.
	DefaultRedisAddr = "localhost:6379"

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"
)

// Token Defaults define the fallback lifetimes and identity settings for issued tokens.
// Lifetimes are expressed as duration specifications ("15m", "7d") because the same
// strings also drive revocation-cache TTL bookkeeping.
const (
	// DefaultAccessTokenExpiry is the default lifetime specification for access tokens.
	DefaultAccessTokenExpiry = "15m"

	// DefaultRefreshTokenExpiry is the default lifetime specification for refresh tokens.
	DefaultRefreshTokenExpiry = "7d"

	// DefaultTokenExpirationSeconds is the fallback used when a lifetime
	// specification cannot be parsed (15 minutes).
	DefaultTokenExpirationSeconds = 900

	// DefaultJWTIssuer is the default issuer claim embedded in signed tokens.
	DefaultJWTIssuer = "authgate-api"

	// VerificationTokenBytes is the number of random bytes in email verification
	// and password reset tokens.
	VerificationTokenBytes = 32
)

// Environment Types define the recognized application running environments.
// These constants are used to adjust behavior based on the deployment environment.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment with optimized settings.
	EnvProduction = "production"
)

// Request Limits define the maximum allowed sizes for incoming requests.
// These constants help prevent denial of service via excessive resource consumption.
const (
	// MaxRequestBodySize is the maximum size in bytes for HTTP request bodies.
	MaxRequestBodySize = 1048576 // 1MB in bytes
)

// Default Password Hash Settings define the parameters for Argon2id password hashing.
// These constants balance security and performance for password storage.
const (
	// DefaultPasswordHashMemory is the memory cost parameter for Argon2id hashing.
	DefaultPasswordHashMemory = 64 * 1024

	// DefaultPasswordHashIterations is the number of iterations for Argon2id hashing.
	DefaultPasswordHashIterations = 3

	// DefaultPasswordHashParallelism is the parallelism parameter for Argon2id hashing.
	DefaultPasswordHashParallelism = 2

	// DefaultPasswordHashSaltLength is the length in bytes of the random salt.
	DefaultPasswordHashSaltLength = 16

	// DefaultPasswordHashKeyLength is the length in bytes of the derived key.
	DefaultPasswordHashKeyLength = 32

	// DevPasswordHashMemory is a reduced memory cost for development environments.
	DevPasswordHashMemory = 16 * 1024

	// DevPasswordHashIterations is a reduced iteration count for development environments.
	DevPasswordHashIterations = 1
)

// Logging Values define standard values used when emitting logs.
const (
	// LogRedactedValue replaces sensitive values (secrets, passwords) in logs.
	LogRedactedValue = "[REDACTED]"
)
