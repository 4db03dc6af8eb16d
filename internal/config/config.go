package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pubg-tracker/internal/constants"
	"pubg-tracker/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	PubgAPIKey     string
	PubgAPIBaseURL string
	DBPath         string
	ServerPort     string
	LogLevel       string
	CORSOrigin     string

	StatsCacheCapacity int
	StatsCacheTTL      time.Duration
	ReapInterval       time.Duration

	PersistWorkers   int
	PersistQueueSize int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		PubgAPIKey:     getEnv("PUBG_API_KEY", ""),
		PubgAPIBaseURL: getEnv("PUBG_API_BASE_URL", "https://api.pubg.com/shards"),
		DBPath:         getEnv("DB_PATH", "pubg.db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
	}

	var err error
	if cfg.StatsCacheCapacity, err = getEnvInt("STATS_CACHE_CAPACITY", constants.DefaultStatsCacheCapacity); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = getEnvDuration("STATS_CACHE_TTL", constants.DefaultStatsCacheTTL); err != nil {
		return nil, err
	}
	if cfg.ReapInterval, err = getEnvDuration("STATS_REAP_INTERVAL", constants.DefaultReapInterval); err != nil {
		return nil, err
	}
	if cfg.PersistWorkers, err = getEnvInt("PERSIST_WORKERS", constants.DefaultPersistWorkers); err != nil {
		return nil, err
	}
	if cfg.PersistQueueSize, err = getEnvInt("PERSIST_QUEUE_SIZE", constants.DefaultPersistQueueSize); err != nil {
		return nil, err
	}

	if cfg.PubgAPIKey == "" {
		return nil, fmt.Errorf("PUBG_API_KEY is required")
	}
	if cfg.StatsCacheCapacity <= 0 {
		return nil, fmt.Errorf("STATS_CACHE_CAPACITY must be positive, got %d", cfg.StatsCacheCapacity)
	}
	// memory entries must not outlive the shortest-lived persisted summary
	if maxTTL := domain.Period7d.TTL(); cfg.StatsCacheTTL <= 0 || cfg.StatsCacheTTL > maxTTL {
		return nil, fmt.Errorf("STATS_CACHE_TTL must be in (0, %s], got %s", maxTTL, cfg.StatsCacheTTL)
	}

	logger.Info().
		Str("api_base_url", cfg.PubgAPIBaseURL).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("stats_cache_capacity", cfg.StatsCacheCapacity).
		Dur("stats_cache_ttl", cfg.StatsCacheTTL).
		Dur("reap_interval", cfg.ReapInterval).
		Int("persist_workers", cfg.PersistWorkers).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
