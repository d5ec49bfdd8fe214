package sessionguard

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/edukit/sessionguard/internal/lockout"
	"github.com/edukit/sessionguard/internal/rate"
	"github.com/edukit/sessionguard/password"
	"github.com/edukit/sessionguard/session"
	"github.com/edukit/sessionguard/token"
)

// Builder defines a public type used by sessionguard APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	provider     PrincipalProvider
	lockoutStore LockoutStore
	counterStore CounterStore
	auditSink    AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration. The config is cloned so
// later mutation of cfg does not leak into the engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the credential signing secret without replacing the rest
// of the configuration.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithRedis supplies the Redis client used for shared lockout records,
// distributed rate limit counters, and one-time ticket redemption.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithPrincipalProvider supplies the account lookup implementation.
func (b *Builder) WithPrincipalProvider(p PrincipalProvider) *Builder {
	b.provider = p
	return b
}

// WithLockoutStore overrides the lockout record store. When unset, Build
// picks the Redis store if a client was supplied and the in-memory store
// otherwise.
func (b *Builder) WithLockoutStore(store LockoutStore) *Builder {
	b.lockoutStore = store
	return b
}

// WithCounterStore overrides the rate limit counter store. Same default
// selection as WithLockoutStore.
func (b *Builder) WithCounterStore(store CounterStore) *Builder {
	b.counterStore = store
	return b
}

// WithAuditSink supplies the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process metrics collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the subsystems, and returns a
// ready Engine. A Builder is single use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil {
		return nil, errors.New("principal provider required")
	}

	if cfg.Ticket.Enabled && b.redis == nil {
		return nil, errors.New("tickets require redis client")
	}

	codec, err := token.NewCodec(cfg.Token.Secret)
	if err != nil {
		return nil, err
	}

	policy, err := session.NewPolicy(codec, session.Profiles{
		Default: session.Profile{
			Idle:     cfg.Session.IdleTimeout,
			Absolute: cfg.Session.AbsoluteLifetime,
		},
		Remembered: session.Profile{
			Idle:     cfg.Session.RememberedIdle,
			Absolute: cfg.Session.RememberedAbsolute,
		},
	})
	if err != nil {
		return nil, err
	}

	lockoutStore := b.lockoutStore
	if lockoutStore == nil {
		if b.redis != nil {
			lockoutStore = NewRedisLockoutStore(b.redis)
		} else {
			lockoutStore = lockout.NewMemoryStore()
		}
	}

	counterStore := b.counterStore
	if counterStore == nil {
		if b.redis != nil {
			counterStore = rate.NewRedisStore(b.redis)
		} else {
			counterStore = rate.NewMemoryStore()
		}
	}

	hasher, err := password.NewHasher(password.Params{
		MemoryKB:    cfg.Password.MemoryKB,
		Iterations:  cfg.Password.Iterations,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		policy:   policy,
		provider: b.provider,
		lockouts: lockout.New(lockoutStore, lockout.Config{
			Threshold:    cfg.Lockout.Threshold,
			Duration:     cfg.Lockout.Duration,
			StoreTimeout: cfg.Lockout.StoreTimeout,
			FailClosed:   cfg.Lockout.FailClosed,
		}),
		limiter: rate.New(counterStore),
		hasher:  hasher,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	if cfg.Ticket.Enabled {
		engine.tickets = newTicketOffice(b.redis, cfg.Ticket, cfg.Token.Secret)
	}

	b.built = true

	return engine, nil
}
