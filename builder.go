package subAuth

import (
	"errors"
	"time"

	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/internal/flows"
	"github.com/MrEthical07/subAuth/internal/rate"
	"github.com/MrEthical07/subAuth/jwt"
	"github.com/MrEthical07/subAuth/password"
	"github.com/MrEthical07/subAuth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	identities identity.Store
	auditStore audit.Store
	auditSink  audit.Sink
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing sessions and sign-in throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore sets the identity persistence layer.
func (b *Builder) WithIdentityStore(store identity.Store) *Builder {
	b.identities = store
	return b
}

// WithAuditStore sets the audit store used for queries. Unless
// [Builder.WithAuditSink] is also called, entries are written to it.
func (b *Builder) WithAuditStore(store audit.Store) *Builder {
	b.auditStore = store
	return b
}

// WithAuditSink overrides where recorded entries are delivered.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source for sessions and audit entries.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.identities == nil {
		return nil, errors.New("identity store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix),
		identities:   b.identities,
		auditStore:   b.auditStore,
		metrics:      NewMetrics(cfg.Metrics),
		now:          now,
	}

	if cfg.Security.EnableSignInThrottle {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Session.RedisPrefix,
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxAttempts:      cfg.Security.MaxSignInAttempts,
			Window:           cfg.Security.SignInCooldown,
		})
	}

	ph, err := password.NewArgon2(cfg.passwordConfig())
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jwtCfg := cfg.jwtConfig()
	jwtCfg.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	jwtCfg.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	jwtCfg.Now = now
	jm, err := jwt.NewManager(jwtCfg)
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil && b.auditStore != nil {
			sink = audit.NewStoreSink(b.auditStore, cfg.Store.OperationTimeout)
		}
		engine.recorder = audit.NewRecorder(audit.RecorderConfig{
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Now:        now,
		}, sink)
	}

	engine.flows = flows.New(engine.buildFlowDeps())

	b.built = true

	return engine, nil
}
