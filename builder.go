package realmauth

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/realmkit/realmauth/password"
	"github.com/realmkit/realmauth/role"
	"github.com/realmkit/realmauth/session"
	"github.com/realmkit/realmauth/token"
)

// Builder assembles an [Engine]. Construct with [New], chain the With-
// methods, then call [Builder.Build] exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accounts  AccountStore
	roles     RoleStore
	clock     Clock
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration. The config is deep-copied;
// later mutation of cfg does not affect the builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountStore sets the account persistence backend.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithRoleStore sets the role persistence backend.
func (b *Builder) WithRoleStore(store RoleStore) *Builder {
	b.roles = store
	return b
}

// WithClock overrides the wall clock. Intended for tests.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink sets the sink audit events are dispatched to.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every subsystem, and returns a
// ready Engine. The builder cannot be reused afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if b.roles == nil {
		return nil, errors.New("role store required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = realClock{}
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	realms := make(map[string]token.Keys, len(cfg.Token.Realms))
	for realm, rc := range cfg.Token.Realms {
		realms[string(realm)] = token.Keys{
			Secret:     rc.Secret,
			AccessTTL:  rc.AccessTTL,
			RefreshTTL: rc.RefreshTTL,
		}
	}
	issuer, err := token.NewIssuer(token.Config{
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
		Now:    clock.Now,
	}, realms)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		accounts:  b.accounts,
		roles:     b.roles,
		roleGraph: role.NewGraph(b.roles, cfg.Role.MaxInheritanceDepth),
		sessions:  session.NewStore(b.redis, cfg.Session.RedisPrefix),
		hasher:    hasher,
		tokens:    issuer,
		clock:     clock,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}

	b.built = true

	return engine, nil
}
