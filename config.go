package realmauth

import (
	"errors"
	"time"
)

// Config is the engine configuration tree. Zero values are filled from
// [defaultConfig] by the builder; per-realm secrets are the only fields
// with no usable default.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Lockout  LockoutConfig
	Session  SessionConfig
	Account  AccountConfig
	Role     RoleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// RealmTokenConfig holds the signing secret and token lifetimes for one
// realm.
type RealmTokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenConfig configures the token issuer.
type TokenConfig struct {
	Issuer string
	Leeway time.Duration
	Realms map[Realm]RealmTokenConfig
}

// PasswordConfig configures hashing cost and the minimum-length hard gate.
// Strength scoring beyond the minimum length is advisory.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

// LockoutConfig configures the failed-login state machine.
type LockoutConfig struct {
	// Threshold is the failed-attempt count that trips the lock.
	Threshold int
	// Duration is how long a tripped lock holds.
	Duration time.Duration
}

// SessionConfig configures the session store.
type SessionConfig struct {
	RedisPrefix string
}

// AccountConfig configures registration behavior.
type AccountConfig struct {
	// DefaultRole is the role code assigned when registration does not
	// name one.
	DefaultRole string
	// InitialStatus is the status newly registered accounts start in.
	InitialStatus AccountStatus
}

// RoleConfig configures inheritance resolution.
type RoleConfig struct {
	// MaxInheritanceDepth bounds the ancestor walk. Zero selects the role
	// package default.
	MaxInheritanceDepth int
}

// AuditConfig configures the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events under backpressure instead of blocking the
	// request path. Dropped counts are observable via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig configures the in-process metric counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the builder starts from.
// Per-realm signing secrets must still be supplied by the caller.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer: "realmauth",
			Realms: map[Realm]RealmTokenConfig{
				RealmEndUser: {AccessTTL: 24 * time.Hour, RefreshTTL: 7 * 24 * time.Hour},
				RealmAdmin:   {AccessTTL: 2 * time.Hour, RefreshTTL: 7 * 24 * time.Hour},
			},
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      6,
			UpgradeOnLogin: true,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  30 * time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "ra",
		},
		Account: AccountConfig{
			DefaultRole:   "member",
			InitialStatus: AccountActive,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	for _, realm := range Realms {
		rc, ok := c.Token.Realms[realm]
		if !ok {
			return errors.New("missing token configuration for realm " + string(realm))
		}
		if len(rc.Secret) < 32 {
			return errors.New("token secret for realm " + string(realm) + " must be at least 32 bytes")
		}
		if rc.AccessTTL <= 0 || rc.RefreshTTL <= 0 {
			return errors.New("token lifetimes for realm " + string(realm) + " must be positive")
		}
		if rc.AccessTTL > rc.RefreshTTL {
			return errors.New("access TTL exceeds refresh TTL for realm " + string(realm))
		}
	}
	if c.Lockout.Threshold < 1 {
		return errors.New("lockout threshold must be >= 1")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	if c.Password.MinLength < 6 {
		return errors.New("password minimum length must be >= 6")
	}
	if c.Account.DefaultRole == "" {
		return errors.New("default role code required")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Realms = make(map[Realm]RealmTokenConfig, len(cfg.Token.Realms))
	for realm, rc := range cfg.Token.Realms {
		secret := make([]byte, len(rc.Secret))
		copy(secret, rc.Secret)
		rc.Secret = secret
		out.Token.Realms[realm] = rc
	}
	return out
}
