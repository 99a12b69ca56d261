package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the hall
// booking service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is merged in first when present.
//
// Every field has a default; set values are validated and reported together.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:hallbooking.db?_foreign_keys=on",
		SessionTTL:    24 * time.Hour,
		SweepInterval: time.Minute,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("HALLBOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "HALLBOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("HALLBOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("HALLBOOKING_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "HALLBOOKING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if sweepValue := strings.TrimSpace(os.Getenv("HALLBOOKING_SWEEP_INTERVAL")); sweepValue != "" {
		sweep, err := time.ParseDuration(sweepValue)
		if err != nil || sweep <= 0 {
			invalid = append(invalid, "HALLBOOKING_SWEEP_INTERVAL")
		} else {
			cfg.SweepInterval = sweep
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
