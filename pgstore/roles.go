package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/realmkit/realmauth/role"
)

// Roles implements [realmauth.RoleStore] on PostgreSQL. Permissions are
// stored as a text[] column and flattened to a comma-joined string in the
// query so the scan stays on database/sql types.
type Roles struct {
	db *sql.DB
}

const roleColumns = `id, code, realm, array_to_string(permissions, ','), inherit_from`

func scanRole(row *sql.Row) (*role.Role, error) {
	var (
		r       role.Role
		perms   string
		inherit sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.Code, &r.Realm, &perms, &inherit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, role.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	if perms != "" {
		r.Permissions = strings.Split(perms, ",")
	}
	if inherit.Valid {
		v := inherit.Int64
		r.InheritFrom = &v
	}
	return &r, nil
}

// FindByCode looks a role up by its code.
func (s *Roles) FindByCode(ctx context.Context, code string) (*role.Role, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+roleColumns+`
		from roles
		where code = $1`,
		code)
	return scanRole(row)
}

// FindByID looks a role up by primary key.
func (s *Roles) FindByID(ctx context.Context, id int64) (*role.Role, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+roleColumns+`
		from roles
		where id = $1`,
		id)
	return scanRole(row)
}

// UpdateInheritFrom persists a role's parent edge. A nil parentID detaches
// the role.
func (s *Roles) UpdateInheritFrom(ctx context.Context, roleID int64, parentID *int64) error {
	res, err := s.db.ExecContext(ctx, `
		update roles
		set inherit_from = $2
		where id = $1`,
		roleID, parentID)
	if err != nil {
		return fmt.Errorf("update inherit_from: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return role.ErrNotFound
	}
	return nil
}
