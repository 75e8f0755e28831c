package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates no live session record for the account+realm.
	ErrNotFound = errors.New("session record not found")
	// ErrTokenMismatch indicates a rotation attempt with a refresh token
	// identifier other than the currently honored one. The record is
	// deleted as reuse protection before this is returned.
	ErrTokenMismatch = errors.New("refresh token identifier mismatch")
	// ErrUnavailable indicates the cache backend could not be reached.
	ErrUnavailable = errors.New("session cache unavailable")
)

// Record is the cache-resident value for one account+realm. The token
// identifier drives refresh rotation; client metadata is audit-only and
// never feeds authorization decisions.
type Record struct {
	TokenID   string
	IssuedAt  time.Time
	IP        string
	UserAgent string
}

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 2
	rotateStatusRotated  int64 = 3
)

const rotateScript = `
local current = redis.call("HGET", KEYS[1], "token_id")
if not current then
  return {0}
end
if current ~= ARGV[1] then
  redis.call("DEL", KEYS[1])
  return {2}
end
redis.call("HSET", KEYS[1], "token_id", ARGV[2], "issued_at", ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return {3, redis.call("HGET", KEYS[1], "ip") or "", redis.call("HGET", KEYS[1], "ua") or ""}
`

var rotateLua = redis.NewScript(rotateScript)

// Store is the Redis-backed session store. Safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore wraps client. prefix namespaces every key and may be empty.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(accountID int64, realm string) string {
	if s.prefix == "" {
		return fmt.Sprintf("session:%d:%s", accountID, realm)
	}
	return fmt.Sprintf("%s:session:%d:%s", s.prefix, accountID, realm)
}

// Put overwrites the record for accountID+realm, implicitly invalidating
// any prior refresh token for that key. Last writer wins.
func (s *Store) Put(ctx context.Context, accountID int64, realm string, rec Record, ttl time.Duration) error {
	key := s.key(accountID, realm)

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"token_id", rec.TokenID,
		"issued_at", strconv.FormatInt(rec.IssuedAt.Unix(), 10),
		"ip", rec.IP,
		"ua", rec.UserAgent,
	)
	pipe.PExpire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the live record for accountID+realm, or [ErrNotFound].
func (s *Store) Get(ctx context.Context, accountID int64, realm string) (*Record, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(accountID, realm)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return recordFromFields(fields), nil
}

// Rotate atomically replaces the honored token identifier. The presented
// identifier must match the stored one; a mismatch deletes the record and
// returns [ErrTokenMismatch], so a stale token is rejected and its whole
// session family is revoked. On success the returned record reflects the
// rotated state.
func (s *Store) Rotate(
	ctx context.Context,
	accountID int64,
	realm string,
	presentedTokenID string,
	nextTokenID string,
	issuedAt time.Time,
	ttl time.Duration,
) (*Record, error) {
	raw, err := rotateLua.Run(ctx, s.redis,
		[]string{s.key(accountID, realm)},
		presentedTokenID,
		nextTokenID,
		strconv.FormatInt(issuedAt.Unix(), 10),
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) == 0 {
		return nil, fmt.Errorf("%w: unexpected rotate reply", ErrUnavailable)
	}
	status, _ := reply[0].(int64)

	switch status {
	case rotateStatusRotated:
		rec := &Record{TokenID: nextTokenID, IssuedAt: issuedAt.Truncate(time.Second)}
		if len(reply) >= 3 {
			rec.IP, _ = reply[1].(string)
			rec.UserAgent, _ = reply[2].(string)
		}
		return rec, nil
	case rotateStatusMismatch:
		return nil, ErrTokenMismatch
	case rotateStatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: unknown rotate status %d", ErrUnavailable, status)
	}
}

// Invalidate deletes the record for accountID+realm. Deleting an absent
// record is not an error.
func (s *Store) Invalidate(ctx context.Context, accountID int64, realm string) error {
	if err := s.redis.Del(ctx, s.key(accountID, realm)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InvalidateAll deletes the records for accountID across all given realms.
// Used on account-wide security events (password change, administrative
// lock, status change).
func (s *Store) InvalidateAll(ctx context.Context, accountID int64, realms ...string) error {
	if len(realms) == 0 {
		return nil
	}
	keys := make([]string, 0, len(realms))
	for _, realm := range realms {
		keys = append(keys, s.key(accountID, realm))
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func recordFromFields(fields map[string]string) *Record {
	rec := &Record{
		TokenID:   fields["token_id"],
		IP:        fields["ip"],
		UserAgent: fields["ua"],
	}
	if unix, err := strconv.ParseInt(fields["issued_at"], 10, 64); err == nil {
		rec.IssuedAt = time.Unix(unix, 0)
	}
	return rec
}
