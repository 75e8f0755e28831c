package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	realmauth "github.com/realmkit/realmauth"
)

// Accounts implements [realmauth.AccountStore] on PostgreSQL.
type Accounts struct {
	db *sql.DB
}

const accountColumns = `id, username, coalesce(email, ''), coalesce(phone, ''),
	password_hash, password_changed_at, failed_login_count, locked_until,
	status, role_id, created_at`

func scanAccount(row *sql.Row) (*realmauth.Account, error) {
	var (
		a      realmauth.Account
		locked sql.NullTime
		status int16
	)
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.Phone,
		&a.PasswordHash, &a.PasswordChangedAt, &a.FailedLoginCount, &locked,
		&status, &a.RoleID, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, realmauth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if locked.Valid {
		t := locked.Time
		a.LockedUntil = &t
	}
	a.Status = realmauth.AccountStatus(status)
	return &a, nil
}

// FindByIdentifier looks an account up by username, email, or phone.
func (s *Accounts) FindByIdentifier(ctx context.Context, identifier string) (*realmauth.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+accountColumns+`
		from accounts
		where username = $1 or email = $1 or phone = $1`,
		identifier)
	return scanAccount(row)
}

// FindByID looks an account up by primary key.
func (s *Accounts) FindByID(ctx context.Context, id int64) (*realmauth.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+accountColumns+`
		from accounts
		where id = $1`,
		id)
	return scanAccount(row)
}

// Create inserts a new account and fills in its assigned id. A unique
// violation on username, email, or phone maps to
// [realmauth.ErrAccountExists].
func (s *Accounts) Create(ctx context.Context, account *realmauth.Account) error {
	err := s.db.QueryRowContext(ctx, `
		insert into accounts
			(username, email, phone, password_hash, password_changed_at,
			 failed_login_count, status, role_id, created_at)
		values ($1, nullif($2, ''), nullif($3, ''), $4, $5, 0, $6, $7, $8)
		returning id`,
		account.Username, account.Email, account.Phone,
		account.PasswordHash, account.PasswordChangedAt,
		int16(account.Status), account.RoleID, account.CreatedAt,
	).Scan(&account.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return realmauth.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash and change timestamp.
func (s *Accounts) UpdatePasswordHash(ctx context.Context, id int64, hash string, changedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set password_hash = $2, password_changed_at = $3
		where id = $1`,
		id, hash, changedAt)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return requireAccountRow(res)
}

// UpdateStatus transitions the account's lifecycle state.
func (s *Accounts) UpdateStatus(ctx context.Context, id int64, status realmauth.AccountStatus) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set status = $2
		where id = $1`,
		id, int16(status))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireAccountRow(res)
}

// RecordLoginFailure increments the failed-login counter and, when the
// incremented count reaches threshold, sets the lock expiry in the same
// statement. Concurrent calls serialize on the row lock, so exactly one
// of them observes the threshold crossing.
func (s *Accounts) RecordLoginFailure(ctx context.Context, id int64, threshold int, lockFor time.Duration) (realmauth.SecurityState, error) {
	var (
		state  realmauth.SecurityState
		locked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		update accounts
		set failed_login_count = failed_login_count + 1,
		    locked_until = case
		        when failed_login_count + 1 >= $2
		        then now() + make_interval(secs => $3)
		        else locked_until
		    end
		where id = $1
		returning failed_login_count, locked_until`,
		id, threshold, lockFor.Seconds(),
	).Scan(&state.FailedLoginCount, &locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return realmauth.SecurityState{}, realmauth.ErrAccountNotFound
		}
		return realmauth.SecurityState{}, fmt.Errorf("record login failure: %w", err)
	}
	if locked.Valid {
		t := locked.Time
		state.LockedUntil = &t
	}
	return state, nil
}

// ResetSecurityState zeroes the failed-login counter and clears any lock.
func (s *Accounts) ResetSecurityState(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set failed_login_count = 0, locked_until = null
		where id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("reset security state: %w", err)
	}
	return requireAccountRow(res)
}

// SetLock sets an explicit lock expiry independent of the counter.
func (s *Accounts) SetLock(ctx context.Context, id int64, until time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set locked_until = $2
		where id = $1`,
		id, until)
	if err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	return requireAccountRow(res)
}

func requireAccountRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return realmauth.ErrAccountNotFound
	}
	return nil
}
