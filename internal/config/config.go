// Package config loads and validates environment variables at startup.
// Fail-fast: an invalid value aborts the process before anything is served.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"jobmate/salary-service/internal/adzuna"
	"jobmate/salary-service/internal/model"
)

// Config holds all runtime configuration for the salary service.
type Config struct {
	Port     string
	GRPCPort string

	Mode           adzuna.Mode
	AdzunaBaseURL  string
	AdzunaAppID    string
	AdzunaAppKey   string
	FixtureBaseURL string // where dev mode finds /cached_responses/*
	Countries      []string

	HTTPTimeout   time.Duration // per upstream request
	SearchTimeout time.Duration // budget for a background submit

	RedisURL    string // optional: session store + events
	DatabaseURL string // optional: search snapshots

	SessionSecret         string
	SessionTTL            time.Duration
	SweepInterval         time.Duration
	SnapshotRetentionDays int
	LogLevel              slog.Level
}

// Load reads an optional .env file, then environment variables, and
// returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	mode, err := adzuna.ParseMode(env("APP_MODE", string(adzuna.ModeDev)))
	if err != nil {
		return nil, err
	}

	port := env("PORT", "8083")

	cfg := &Config{
		Port:           port,
		GRPCPort:       env("GRPC_PORT", "9083"),
		Mode:           mode,
		AdzunaBaseURL:  strings.TrimRight(env("ADZUNA_BASE_URL", adzuna.DefaultBaseURL), "/"),
		AdzunaAppID:    getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:   getenv("ADZUNA_APP_KEY"),
		FixtureBaseURL: strings.TrimRight(env("FIXTURE_BASE_URL", "http://localhost:"+port), "/"),
		RedisURL:       getenv("REDIS_URL"),
		DatabaseURL:    getenv("DATABASE_URL"),
		SessionSecret:  env("SESSION_SECRET", "dev-session-secret-change-in-prod"),
	}

	if mode == adzuna.ModeLive && (cfg.AdzunaAppID == "" || cfg.AdzunaAppKey == "") {
		return nil, fmt.Errorf("ADZUNA_APP_ID and ADZUNA_APP_KEY are required in live mode")
	}

	if cfg.Countries, err = parseCountries(env("SUPPORTED_COUNTRIES", "")); err != nil {
		return nil, err
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", 15 * time.Second, &cfg.HTTPTimeout},
		{"SEARCH_TIMEOUT", 45 * time.Second, &cfg.SearchTimeout},
		{"SESSION_TTL", 2 * time.Hour, &cfg.SessionTTL},
		{"SWEEP_INTERVAL", 10 * time.Minute, &cfg.SweepInterval},
	}
	for _, d := range durations {
		v, err := parseDuration(d.key, getenv(d.key), d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	cfg.SnapshotRetentionDays = 30
	if s := getenv("SNAPSHOT_RETENTION_DAYS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SNAPSHOT_RETENTION_DAYS must be a positive integer, got %q", s)
		}
		cfg.SnapshotRetentionDays = v
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// parseCountries accepts a comma-separated list of market codes. An empty
// list selects every market.
func parseCountries(s string) ([]string, error) {
	if s == "" {
		return model.AllCountryCodes(), nil
	}
	var codes []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		code := strings.ToLower(strings.TrimSpace(part))
		if code == "" || seen[code] {
			continue
		}
		if _, ok := model.LookupCountry(code); !ok {
			return nil, fmt.Errorf("SUPPORTED_COUNTRIES: unknown country %q", code)
		}
		seen[code] = true
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("SUPPORTED_COUNTRIES must name at least one country")
	}
	return codes, nil
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}
