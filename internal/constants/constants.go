package constants

import "time"

const (
	ExternalAPITimeout = 30 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 60 * time.Second
)

// external api retry budget
const (
	MaxRetries            = 3
	InitialBackoff        = 1 * time.Second
	DefaultRateLimitReset = 60 * time.Second
)

const (
	DefaultStatsCacheCapacity = 1000
	DefaultStatsCacheTTL      = 1 * time.Hour
	DefaultReapInterval       = 1 * time.Minute
)

const (
	DefaultPersistWorkers   = 2
	DefaultPersistQueueSize = 256
	PersistRetries          = 3
	PersistInitialBackoff   = 200 * time.Millisecond
	PersistDrainTimeout     = 5 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	MaxTrackedMatches   = 5
	DashboardMaxPlayers = 10
)
