package sessionguard

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by sessionguard APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token     TokenConfig
	Session   SessionConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Ticket    TicketConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by sessionguard APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	Secret []byte
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by sessionguard APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	IdleTimeout        time.Duration
	AbsoluteLifetime   time.Duration
	RememberedIdle     time.Duration
	RememberedAbsolute time.Duration
	AllowRememberMe    bool
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig defines a public type used by sessionguard APIs.
//
// LockoutConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockoutConfig struct {
	Threshold    int
	Duration     time.Duration
	StoreTimeout time.Duration
	FailClosed   bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig defines a public type used by sessionguard APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Enabled          bool
	LoginPerIP       Rule
	LoginPerIdentity Rule
}

// PasswordConfig defines a public type used by sessionguard APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	MemoryKB       uint32
	Iterations     uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// TicketConfig defines a public type used by sessionguard APIs.
//
// TicketConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TicketConfig struct {
	Enabled     bool
	TTL         time.Duration
	RedisPrefix string
}

// AuditConfig defines a public type used by sessionguard APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by sessionguard APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by sessionguard APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode       bool
	RequireSecureCookies bool
	SameSitePolicy       http.SameSite
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration a bare [New] builder starts from.
// Callers tweak what they need and pass the result to
// [Builder.WithConfig]; the token secret must still be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			IdleTimeout:        30 * time.Minute,
			AbsoluteLifetime:   12 * time.Hour,
			RememberedIdle:     7 * 24 * time.Hour,
			RememberedAbsolute: 30 * 24 * time.Hour,
			AllowRememberMe:    true,
		},
		Lockout: LockoutConfig{
			Threshold:    5,
			Duration:     15 * time.Minute,
			StoreTimeout: 2 * time.Second,
			FailClosed:   false,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			LoginPerIP:       Rule{MaxRequests: 20, Window: time.Minute},
			LoginPerIdentity: Rule{MaxRequests: 10, Window: time.Minute},
		},
		Password: PasswordConfig{
			MemoryKB:       65536,
			Iterations:     3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Ticket: TicketConfig{
			Enabled:     false,
			TTL:         15 * time.Minute,
			RedisPrefix: "sgt",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:       false,
			RequireSecureCookies: true,
			SameSitePolicy:       http.SameSiteLaxMode,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for startup-fatal mistakes. A missing
// or short signing secret is always fatal; ProductionMode tightens the
// remaining rules.
func (c *Config) Validate() error {
	if len(c.Token.Secret) < 16 {
		return errors.New("token secret must be at least 16 bytes")
	}

	if c.Session.IdleTimeout <= 0 {
		return errors.New("session IdleTimeout must be > 0")
	}
	if c.Session.AbsoluteLifetime <= 0 {
		return errors.New("session AbsoluteLifetime must be > 0")
	}
	if c.Session.AbsoluteLifetime < c.Session.IdleTimeout {
		return errors.New("session AbsoluteLifetime must be >= IdleTimeout")
	}
	if c.Session.AllowRememberMe {
		if c.Session.RememberedIdle <= 0 {
			return errors.New("session RememberedIdle must be > 0")
		}
		if c.Session.RememberedAbsolute < c.Session.RememberedIdle {
			return errors.New("session RememberedAbsolute must be >= RememberedIdle")
		}
	}

	if c.Lockout.Threshold <= 0 {
		return errors.New("lockout Threshold must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("lockout Duration must be > 0")
	}
	if c.Lockout.StoreTimeout <= 0 {
		return errors.New("lockout StoreTimeout must be > 0")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.LoginPerIP.MaxRequests <= 0 || c.RateLimit.LoginPerIP.Window <= 0 {
			return errors.New("rate limit LoginPerIP rule is invalid")
		}
		if c.RateLimit.LoginPerIdentity.MaxRequests <= 0 || c.RateLimit.LoginPerIdentity.Window <= 0 {
			return errors.New("rate limit LoginPerIdentity rule is invalid")
		}
	}

	if c.Ticket.Enabled {
		if c.Ticket.TTL <= 0 {
			return errors.New("ticket TTL must be > 0")
		}
		if c.Ticket.RedisPrefix == "" {
			return errors.New("ticket RedisPrefix must not be empty")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit BufferSize must be > 0")
	}

	if c.Security.ProductionMode {
		if len(c.Token.Secret) < 32 {
			return errors.New("production mode requires a token secret of at least 32 bytes")
		}
		if !c.Security.RequireSecureCookies {
			return errors.New("production mode requires secure cookies")
		}
		if !c.RateLimit.Enabled {
			return errors.New("production mode requires rate limiting")
		}
	}

	return nil
}
