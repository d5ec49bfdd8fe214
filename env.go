package sessionguard

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ConfigFromEnv builds a Config from SESSIONGUARD_* environment variables,
// loading a .env file first when one is present. Unset variables keep their
// defaults; SESSIONGUARD_SECRET is required.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	secret := os.Getenv("SESSIONGUARD_SECRET")
	if secret == "" {
		return Config{}, errors.New("SESSIONGUARD_SECRET is not set")
	}
	cfg.Token.Secret = []byte(secret)

	var err error
	if cfg.Session.IdleTimeout, err = envDuration("SESSIONGUARD_IDLE_TIMEOUT", cfg.Session.IdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Session.AbsoluteLifetime, err = envDuration("SESSIONGUARD_ABSOLUTE_LIFETIME", cfg.Session.AbsoluteLifetime); err != nil {
		return Config{}, err
	}
	if cfg.Session.RememberedIdle, err = envDuration("SESSIONGUARD_REMEMBERED_IDLE", cfg.Session.RememberedIdle); err != nil {
		return Config{}, err
	}
	if cfg.Session.RememberedAbsolute, err = envDuration("SESSIONGUARD_REMEMBERED_ABSOLUTE", cfg.Session.RememberedAbsolute); err != nil {
		return Config{}, err
	}
	if cfg.Session.AllowRememberMe, err = envBool("SESSIONGUARD_ALLOW_REMEMBER_ME", cfg.Session.AllowRememberMe); err != nil {
		return Config{}, err
	}

	if cfg.Lockout.Threshold, err = envInt("SESSIONGUARD_LOCKOUT_THRESHOLD", cfg.Lockout.Threshold); err != nil {
		return Config{}, err
	}
	if cfg.Lockout.Duration, err = envDuration("SESSIONGUARD_LOCKOUT_DURATION", cfg.Lockout.Duration); err != nil {
		return Config{}, err
	}
	if cfg.Lockout.FailClosed, err = envBool("SESSIONGUARD_LOCKOUT_FAIL_CLOSED", cfg.Lockout.FailClosed); err != nil {
		return Config{}, err
	}

	if cfg.RateLimit.Enabled, err = envBool("SESSIONGUARD_RATE_LIMIT", cfg.RateLimit.Enabled); err != nil {
		return Config{}, err
	}

	if cfg.Ticket.Enabled, err = envBool("SESSIONGUARD_TICKETS", cfg.Ticket.Enabled); err != nil {
		return Config{}, err
	}
	if cfg.Ticket.TTL, err = envDuration("SESSIONGUARD_TICKET_TTL", cfg.Ticket.TTL); err != nil {
		return Config{}, err
	}

	if cfg.Audit.Enabled, err = envBool("SESSIONGUARD_AUDIT", cfg.Audit.Enabled); err != nil {
		return Config{}, err
	}
	if cfg.Metrics.Enabled, err = envBool("SESSIONGUARD_METRICS", cfg.Metrics.Enabled); err != nil {
		return Config{}, err
	}

	if cfg.Security.ProductionMode, err = envBool("SESSIONGUARD_PRODUCTION", cfg.Security.ProductionMode); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func envBool(name string, fallback bool) (bool, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
