package realmauth

import (
	"context"
	"errors"

	"github.com/realmkit/realmauth/session"
)

// SessionInfo returns the metadata of the account's live session in one
// realm. The refresh token identifier is never exposed.
func (e *Engine) SessionInfo(ctx context.Context, accountID int64, realm Realm) (*SessionInfo, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if !realm.Valid() {
		return nil, ErrInvalidRealm
	}

	rec, err := e.sessions.Get(ctx, accountID, string(realm))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &SessionInfo{
		IssuedAt:  rec.IssuedAt,
		IP:        rec.IP,
		UserAgent: rec.UserAgent,
	}, nil
}

// HasSession reports whether the account currently has a live session in
// the given realm.
func (e *Engine) HasSession(ctx context.Context, accountID int64, realm Realm) (bool, error) {
	_, err := e.SessionInfo(ctx, accountID, realm)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
