package config

import (
	"os"
	"time"
)

// RateLimitConfig controls the fixed-window limiter applied to the
// credential endpoints (register/login/refresh).  A window of Attempts
// requests per client IP is allowed; once exceeded the request is rejected
// until the window expires.
type RateLimitConfig struct {
	Enabled  bool
	Attempts int           // allowed requests per window
	Window   time.Duration // window length
	Prefix   string        // redis key prefix
}

// LoadRateLimitConfig builds the limiter configuration from environment
// variables with conservative defaults suited to login brute-force damping.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:  envBool("RATE_LIMIT_ENABLED", true),
		Attempts: envInt("RATE_LIMIT_ATTEMPTS", 10),
		Window:   envDur("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:   envStr("RATE_LIMIT_PREFIX", "rl:auth"),
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
