package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// External call timeouts
const (
	PlannerTimeout  = 120 * time.Second
	BackendTimeout  = 60 * time.Second
	RegistryTimeout = 30 * time.Second
)

// Backoff applied to the scheduler tick after a storage failure
const StorageBackoff = 10 * time.Second

// Chunk size for bulk id-list updates, kept well under the
// parameterized-query limit of the Postgres wire protocol.
const BulkUpdateChunkSize = 500

// Page size for system-of-record reconciliation fetches
const ReconcilePageSize = 200

// Sentinel assigned to unban_date when a temporary ban is superseded;
// far enough out that it never trips scheduling math.
var FarFutureUnban = time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

// Default rate limiting for the ops API
const DefaultRateLimitPerMin = 60
