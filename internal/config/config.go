// Package config loads the gateway's environment-driven configuration,
// with defaulting and DSN-masking helpers for startup logging.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// HealthCheckInterval is the base cadence for the processor health
	// probe; the Monitor only ever lengthens it under sustained failure.
	// Must not be shortened — the downstream processor
	// rate-limits this endpoint and will itself start failing probes.
	HealthCheckInterval = 5 * time.Second

	// HealthCheckTimeout bounds a single health probe call.
	HealthCheckTimeout = 10 * time.Second

	// SendExtraTimeout is added to the processor's own reported
	// min-latency to form the per-attempt POST deadline.
	SendExtraTimeout = 500 * time.Millisecond

	// BothDownPollInterval is how long the Dispatcher sleeps between
	// checks while both processors are unhealthy.
	BothDownPollInterval = 10 * time.Millisecond

	// HTTPPort is the fixed inbound listen port.
	HTTPPort = "9999"
)

// Config holds every environment-derived setting the gateway needs at
// startup.
type Config struct {
	DefaultProcessorURL  string
	FallbackProcessorURL string
	BackendID            string
	LedgerDriver         string
	LedgerDSNLocal       string
	LedgerDSNPeer        string
	RedisURL             string
}

// Load reads configuration from the environment, applying defaults
// suitable for local development against the two processor simulators.
func Load() Config {
	backendID := getEnvOrDefault("BACKEND_ID", "1")

	defaultLocal := "temp/app1.db"
	defaultPeer := "temp/app2.db"
	if backendID == "2" {
		defaultLocal, defaultPeer = defaultPeer, defaultLocal
	}

	return Config{
		DefaultProcessorURL:  getEnvOrDefault("PAYMENT_PROCESSOR_URL_DEFAULT", "http://localhost:8001"),
		FallbackProcessorURL: getEnvOrDefault("PAYMENT_PROCESSOR_URL_FALLBACK", "http://localhost:8002"),
		BackendID:            backendID,
		LedgerDriver:         getEnvOrDefault("LEDGER_DRIVER", "sqlite"),
		LedgerDSNLocal:       getEnvOrDefault("SQLITE_DATABASE", defaultLocal),
		LedgerDSNPeer:        getEnvOrDefault("SQLITE_DATABASE_PEER", defaultPeer),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvIntOrDefault reads an integer-valued env var, falling back on
// parse failure or absence.
func GetEnvIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// MaskDSN hides credentials embedded in a connection string before it is
// logged.
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "://") && strings.Contains(dsn, "@") {
		parts := strings.SplitN(dsn, "@", 2)
		schemeParts := strings.SplitN(parts[0], "://", 2)
		if len(schemeParts) == 2 {
			return schemeParts[0] + "://***@" + parts[1]
		}
	}
	return dsn
}
