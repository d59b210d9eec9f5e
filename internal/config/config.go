package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "ubio-intake/common/config"
)

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"

	MergeModeConcat = "concat"
	MergeModeDedup  = "dedup"
)

// Config settings for both ubio-intake and ubio-records
type Config struct {
	HTTP struct {
		Addr        string // ubio-intake listen address
		RecordsAddr string // ubio-records listen address
	}

	// Remote records endpoint used by ubio-intake
	Remote commoncfg.RemoteConfig

	// Local cache (single JSON array under one key)
	Cache struct {
		Backend string // redis | memory
		Key     string
	}
	Redis commoncfg.RedisConfig

	// Records server storage
	DBEnabled bool
	Database  commoncfg.DatabaseConfig

	Table struct {
		RefreshInterval time.Duration
		MergeMode       string // concat | dedup
	}

	// Timezone for date filters and calendar-date spreadsheet cells
	Timezone string

	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8081")
	cfg.HTTP.RecordsAddr = getEnv("RECORDS_HTTP_ADDR", ":8080")

	cfg.Remote.BaseURL = "http://localhost:8080"
	cfg.Remote.Timeout = 10 * time.Second
	cfg.Remote.RetryCount = 2
	cfg.Remote.BreakerFailures = 5
	cfg.Remote.BreakerCooldown = 30 * time.Second
	cfg.Remote.LoadFromEnv("REMOTE")

	cfg.Cache.Backend = getEnv("CACHE_BACKEND", CacheBackendRedis)
	cfg.Cache.Key = getEnv("CACHE_KEY", "userInfoData")
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	// Records server falls back to the memory store when the DB is unreachable.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "ubio"
	cfg.Database.SSLMode = "disable"
	cfg.Database.LoadFromEnv("DB")

	cfg.Table.RefreshInterval = parseDuration(getEnv("TABLE_REFRESH_INTERVAL", "30s"), 30*time.Second)
	cfg.Table.MergeMode = getEnv("MERGE_MODE", MergeModeConcat)

	cfg.Timezone = getEnv("TIMEZONE", "Local")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// Location resolves Timezone, falling back to time.Local
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	// bare number = seconds
	if n := parseInt(s, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
