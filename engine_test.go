package realmauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/realmkit/realmauth/role"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memAccountStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*Account
	clock  Clock

	failResetSecurityState bool
}

func newMemAccountStore(clock Clock) *memAccountStore {
	return &memAccountStore{nextID: 1, byID: map[int64]*Account{}, clock: clock}
}

func (s *memAccountStore) put(a *Account) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID
		s.nextID++
	}
	cp := *a
	s.byID[a.ID] = &cp
	return a
}

func (s *memAccountStore) FindByIdentifier(_ context.Context, identifier string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.Username == identifier || (a.Email != "" && a.Email == identifier) || (a.Phone != "" && a.Phone == identifier) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *memAccountStore) FindByID(_ context.Context, id int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAccountStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.Username == account.Username ||
			(account.Email != "" && a.Email == account.Email) ||
			(account.Phone != "" && a.Phone == account.Phone) {
			return ErrAccountExists
		}
	}
	account.ID = s.nextID
	s.nextID++
	cp := *account
	s.byID[account.ID] = &cp
	return nil
}

func (s *memAccountStore) UpdatePasswordHash(_ context.Context, id int64, hash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = changedAt
	return nil
}

func (s *memAccountStore) UpdateStatus(_ context.Context, id int64, status AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.Status = status
	return nil
}

func (s *memAccountStore) RecordLoginFailure(_ context.Context, id int64, threshold int, lockFor time.Duration) (SecurityState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return SecurityState{}, ErrAccountNotFound
	}
	a.FailedLoginCount++
	if a.FailedLoginCount >= threshold {
		until := s.clock.Now().Add(lockFor)
		a.LockedUntil = &until
	}
	state := SecurityState{FailedLoginCount: a.FailedLoginCount}
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		state.LockedUntil = &t
	}
	return state, nil
}

func (s *memAccountStore) ResetSecurityState(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failResetSecurityState {
		return ErrEngineNotReady
	}
	a, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.FailedLoginCount = 0
	a.LockedUntil = nil
	return nil
}

func (s *memAccountStore) SetLock(_ context.Context, id int64, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	cp := until
	a.LockedUntil = &cp
	return nil
}

type memRoleStore struct {
	mu     sync.Mutex
	byID   map[int64]*Role
	byCode map[string]*Role
}

func newMemRoleStore(roles ...*Role) *memRoleStore {
	s := &memRoleStore{byID: map[int64]*Role{}, byCode: map[string]*Role{}}
	for _, r := range roles {
		cp := *r
		s.byID[r.ID] = &cp
		s.byCode[r.Code] = &cp
	}
	return s
}

func (s *memRoleStore) FindByCode(_ context.Context, code string) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byCode[code]
	if !ok {
		return nil, role.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memRoleStore) FindByID(_ context.Context, id int64) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, role.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memRoleStore) UpdateInheritFrom(_ context.Context, roleID int64, parentID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[roleID]
	if !ok {
		return role.ErrNotFound
	}
	r.InheritFrom = parentID
	return nil
}

type testHarness struct {
	engine   *Engine
	accounts *memAccountStore
	roles    *memRoleStore
	clock    *fakeClock
	redis    *miniredis.Miniredis
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Realms = map[Realm]RealmTokenConfig{
		RealmEndUser: {
			Secret:     []byte("end-user-secret-0123456789abcdefgh"),
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		RealmAdmin: {
			Secret:     []byte("admin-secret-0123456789abcdefghijk"),
			AccessTTL:  2 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
	}
	// Low-cost hashing keeps the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func defaultTestRoles() []*Role {
	adminParent := int64(3)
	return []*Role{
		{ID: 1, Code: "member", Realm: string(RealmEndUser), Permissions: []string{"profile.read", "profile.write"}},
		{ID: 2, Code: "support", Realm: string(RealmAdmin), Permissions: []string{"tickets.read"}, InheritFrom: &adminParent},
		{ID: 3, Code: "operator", Realm: string(RealmAdmin), Permissions: []string{"accounts.read"}},
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	accounts := newMemAccountStore(clock)
	roles := newMemRoleStore(defaultTestRoles()...)

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(client).
		WithAccountStore(accounts).
		WithRoleStore(roles).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testHarness{engine: engine, accounts: accounts, roles: roles, clock: clock, redis: mr}
}

// registerAccount creates an account through the engine and returns it.
func (h *testHarness) registerAccount(t *testing.T, username, password, roleCode string) *Account {
	t.Helper()
	account, err := h.engine.Register(context.Background(), RegisterInput{
		Username: username,
		Password: password,
		Role:     roleCode,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return account
}

func TestBuilderRequiresDependencies(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected error without redis client")
	}
	if _, err := New().WithConfig(testConfig()).WithRedis(client).Build(); err == nil {
		t.Fatal("expected error without account store")
	}

	clock := newFakeClock()
	accounts := newMemAccountStore(clock)
	if _, err := New().WithConfig(testConfig()).WithRedis(client).WithAccountStore(accounts).Build(); err == nil {
		t.Fatal("expected error without role store")
	}
}

func TestBuilderRejectsShortSecret(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig()
	rc := cfg.Token.Realms[RealmAdmin]
	rc.Secret = []byte("short")
	cfg.Token.Realms[RealmAdmin] = rc

	clock := newFakeClock()
	_, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithAccountStore(newMemAccountStore(clock)).
		WithRoleStore(newMemRoleStore(defaultTestRoles()...)).
		Build()
	if err == nil {
		t.Fatal("expected error for short signing secret")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	clock := newFakeClock()
	b := New().
		WithConfig(testConfig()).
		WithRedis(client).
		WithAccountStore(newMemAccountStore(clock)).
		WithRoleStore(newMemRoleStore(defaultTestRoles()...))

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected error reusing builder")
	}
}
