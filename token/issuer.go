package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired indicates a structurally valid token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrMalformed indicates a token that failed parsing or signature
	// verification for its claimed realm.
	ErrMalformed = errors.New("token malformed")
	// ErrRealmMismatch indicates a token minted for a different realm than
	// the one it was presented against.
	ErrRealmMismatch = errors.New("token realm mismatch")
	// ErrUnknownRealm indicates a realm with no configured signing keys.
	ErrUnknownRealm = errors.New("unknown token realm")
)

// Keys holds the signing material and lifetimes for a single realm.
type Keys struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Config holds issuer-wide settings shared by all realms.
type Config struct {
	Issuer string
	Leeway time.Duration
	// Now supplies the clock for iat/exp evaluation. Defaults to time.Now.
	Now func() time.Time
}

// Issuer mints and verifies realm-scoped token pairs. Immutable after
// construction and safe for concurrent use.
type Issuer struct {
	config Config
	realms map[string]Keys
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Realm string   `json:"realm"`
	Role  string   `json:"role"`
	Perms []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. Permissions are
// deliberately absent: they may change between issuance and use and are
// re-resolved on rotation.
type RefreshClaims struct {
	Realm string `json:"realm"`
	jwt.RegisteredClaims
}

// NewIssuer validates per-realm key material and returns an [Issuer].
func NewIssuer(cfg Config, realms map[string]Keys) (*Issuer, error) {
	if len(realms) == 0 {
		return nil, errors.New("at least one realm required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	keys := make(map[string]Keys, len(realms))
	for realm, k := range realms {
		if realm == "" {
			return nil, errors.New("realm tag cannot be empty")
		}
		if len(k.Secret) < 32 {
			return nil, errors.New("realm secret must be at least 32 bytes: " + realm)
		}
		if k.AccessTTL <= 0 || k.RefreshTTL <= 0 {
			return nil, errors.New("realm token lifetimes must be positive: " + realm)
		}
		keys[realm] = k
	}

	return &Issuer{config: cfg, realms: keys}, nil
}

// AccessTTL returns the configured access-token lifetime for realm.
func (i *Issuer) AccessTTL(realm string) time.Duration {
	return i.realms[realm].AccessTTL
}

// RefreshTTL returns the configured refresh-token lifetime for realm.
func (i *Issuer) RefreshTTL(realm string) time.Duration {
	return i.realms[realm].RefreshTTL
}

// IssueAccess mints a signed access token embedding the role and the
// permission snapshot resolved at issuance time.
func (i *Issuer) IssueAccess(accountID int64, realm, roleCode string, perms []string) (string, error) {
	keys, ok := i.realms[realm]
	if !ok {
		return "", ErrUnknownRealm
	}

	now := i.config.Now()
	claims := AccessClaims{
		Realm: realm,
		Role:  roleCode,
		Perms: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(keys.AccessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(keys.Secret)
}

// IssueRefresh mints a signed refresh token and returns it together with
// its rotation identifier (the jti), which the session store records as
// the currently honored token for the account+realm.
func (i *Issuer) IssueRefresh(accountID int64, realm string) (signed string, tokenID string, err error) {
	keys, ok := i.realms[realm]
	if !ok {
		return "", "", ErrUnknownRealm
	}

	now := i.config.Now()
	tokenID = uuid.NewString()
	claims := RefreshClaims{
		Realm: realm,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(keys.RefreshTTL)),
		},
	}

	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(keys.Secret)
	if err != nil {
		return "", "", err
	}
	return signed, tokenID, nil
}

// VerifyAccess verifies signature, expiry, and realm of an access token
// against expectedRealm.
func (i *Issuer) VerifyAccess(tokenStr, expectedRealm string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.verify(tokenStr, expectedRealm, claims, func() string { return claims.Realm }); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh verifies signature, expiry, and realm of a refresh token
// against expectedRealm. Session liveness is checked separately by the
// caller.
func (i *Issuer) VerifyRefresh(tokenStr, expectedRealm string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.verify(tokenStr, expectedRealm, claims, func() string { return claims.Realm }); err != nil {
		return nil, err
	}
	return claims, nil
}

// AccountID extracts the numeric account id from a subject claim.
func AccountID(claims jwt.Claims) (int64, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrMalformed
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}
	return id, nil
}

func (i *Issuer) verify(tokenStr, expectedRealm string, claims jwt.Claims, realmTag func() string) error {
	keys, ok := i.realms[expectedRealm]
	if !ok {
		return ErrUnknownRealm
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.config.Now),
		jwt.WithExpirationRequired(),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return keys.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			// A token signed for a sibling realm fails this realm's key.
			// Classify by the (unverified) realm tag so callers can report
			// the cross-realm replay distinctly from garbage input.
			if i.unverifiedRealm(tokenStr) != "" && i.unverifiedRealm(tokenStr) != expectedRealm {
				return ErrRealmMismatch
			}
			return ErrMalformed
		default:
			return ErrMalformed
		}
	}
	if !parsed.Valid {
		return ErrMalformed
	}
	if realmTag() != expectedRealm {
		return ErrRealmMismatch
	}
	return nil
}

func (i *Issuer) unverifiedRealm(tokenStr string) string {
	var tag struct {
		Realm string `json:"realm"`
		jwt.RegisteredClaims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &tag); err != nil {
		return ""
	}
	return tag.Realm
}
