package realmauth

import (
	"context"
	"time"

	"github.com/realmkit/realmauth/role"
)

// Realm is an isolated authentication domain with its own signing secret,
// token lifetimes, and role namespace.
type Realm string

const (
	// RealmEndUser is the realm serving the public API surface.
	RealmEndUser Realm = "end-user"
	// RealmAdmin is the realm serving the administrative API surface.
	RealmAdmin Realm = "admin"
)

// Realms lists every supported realm. Account-wide invalidation walks this
// set.
var Realms = []Realm{RealmEndUser, RealmAdmin}

// Valid reports whether r names a supported realm.
func (r Realm) Valid() bool {
	return r == RealmEndUser || r == RealmAdmin
}

// AccountStatus is the coarse lifecycle state of an account. Any state
// other than [AccountActive] refuses authentication regardless of
// credential correctness.
type AccountStatus uint8

const (
	// AccountActive permits authentication.
	AccountActive AccountStatus = iota
	// AccountInactive marks an account switched off by its owner.
	AccountInactive
	// AccountSuspended marks an account suspended by an administrator.
	AccountSuspended
	// AccountBanned marks an account permanently banned.
	AccountBanned
	// AccountDeleted marks a soft-deleted account. Records are never
	// physically removed.
	AccountDeleted
	// AccountPending marks an account created but not yet activated.
	AccountPending
)

func (s AccountStatus) String() string {
	switch s {
	case AccountActive:
		return "active"
	case AccountInactive:
		return "inactive"
	case AccountSuspended:
		return "suspended"
	case AccountBanned:
		return "banned"
	case AccountDeleted:
		return "deleted"
	case AccountPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Account is the persisted account record. Security fields (failed login
// count, lock expiry) are mutated only through the [AccountStore] security
// operations, never written directly by callers.
type Account struct {
	ID       int64
	Username string
	Email    string // optional, unique when set
	Phone    string // optional, unique when set

	PasswordHash      string
	PasswordChangedAt time.Time

	FailedLoginCount int
	LockedUntil      *time.Time
	Status           AccountStatus

	RoleID    int64
	CreatedAt time.Time
}

// Role aliases the role package's record type so store implementations and
// the engine share one definition.
type Role = role.Role

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// TTL is the access token lifetime; the client should refresh before
	// it elapses.
	TTL time.Duration
}

// AuthResult is the outcome of validating an access token.
type AuthResult struct {
	AccountID   int64
	Realm       Realm
	Role        string
	Permissions []string
}

// SessionInfo is an audit-oriented view of a live session. The refresh
// token identifier is deliberately not exposed.
type SessionInfo struct {
	IssuedAt  time.Time
	IP        string
	UserAgent string
}

// RegisterInput carries the fields accepted at registration. Field shape
// is validated before the core runs; password policy is applied by the
// engine.
type RegisterInput struct {
	Username string `validate:"required,min=3,max=64"`
	Password string `validate:"required"`
	Email    string `validate:"omitempty,email"`
	Phone    string `validate:"omitempty,e164"`
	// Role optionally overrides the configured default role code.
	Role string `validate:"omitempty,max=64"`
}

// SecurityState is the outcome of recording a failed login attempt.
type SecurityState struct {
	FailedLoginCount int
	LockedUntil      *time.Time
}

// AccountStore is the persistence contract the engine consumes. The
// security mutations must be atomic at the storage layer: concurrent
// failed-login recordings for one account may never lose an increment.
type AccountStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	// Create persists a new account and fills in its assigned id.
	// Duplicate username/email/phone fails with [ErrAccountExists].
	Create(ctx context.Context, account *Account) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string, changedAt time.Time) error
	UpdateStatus(ctx context.Context, id int64, status AccountStatus) error

	// RecordLoginFailure increments the failed-login counter in a single
	// atomic read-modify-write and, when the incremented count reaches
	// threshold, sets the lock expiry to now+lockFor in the same write.
	RecordLoginFailure(ctx context.Context, id int64, threshold int, lockFor time.Duration) (SecurityState, error)
	// ResetSecurityState zeroes the counter and clears any lock expiry.
	ResetSecurityState(ctx context.Context, id int64) error
	// SetLock sets an explicit lock expiry independent of the counter.
	SetLock(ctx context.Context, id int64, until time.Time) error
}

// RoleStore is the role persistence contract. It doubles as the
// [role.Source] the inheritance graph reads from.
type RoleStore interface {
	role.Source
	// UpdateInheritFrom persists the parent edge. Callers must have
	// validated the edge against the graph first.
	UpdateInheritFrom(ctx context.Context, roleID int64, parentID *int64) error
}

// Clock supplies wall-clock time to the engine so lock expiry and token
// lifetimes are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// PermanentLockTime is the open-ended lock marker used by administrative
// locks with no duration. Far enough out that wall clocks never reach it.
var PermanentLockTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
