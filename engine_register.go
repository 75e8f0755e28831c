package realmauth

import (
	"context"
	"errors"

	"github.com/realmkit/realmauth/role"
)

// Register creates a new account. Input shape is validated first, then the
// password policy is applied, the role code is resolved, and the record is
// persisted with the configured initial status. Duplicate username, email,
// or phone fails with [ErrAccountExists].
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.validate.Struct(input); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, 0, "", ErrInvalidInput, func() map[string]string {
			return map[string]string{"identifier": input.Username, "reason": "shape_validation"}
		})
		return nil, errors.Join(ErrInvalidInput, err)
	}

	if len(input.Password) < e.config.Password.MinLength {
		e.emitAudit(ctx, auditEventRegisterFailure, false, 0, "", ErrWeakPassword, func() map[string]string {
			return map[string]string{"identifier": input.Username, "reason": "password_policy"}
		})
		return nil, ErrWeakPassword
	}

	roleCode := input.Role
	if roleCode == "" {
		roleCode = e.config.Account.DefaultRole
	}
	roleRec, err := e.roles.FindByCode(ctx, roleCode)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Username:          input.Username,
		Email:             input.Email,
		Phone:             input.Phone,
		PasswordHash:      hash,
		PasswordChangedAt: e.now(),
		Status:            e.config.Account.InitialStatus,
		RoleID:            roleRec.ID,
		CreatedAt:         e.now(),
	}

	if err := e.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, 0, "", ErrAccountExists, func() map[string]string {
				return map[string]string{"identifier": input.Username}
			})
			return nil, ErrAccountExists
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, 0, "", err, func() map[string]string {
			return map[string]string{"identifier": input.Username, "reason": "store_create"}
		})
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, account.ID, "", nil, func() map[string]string {
		return map[string]string{"identifier": input.Username, "role": roleCode}
	})

	return account, nil
}
