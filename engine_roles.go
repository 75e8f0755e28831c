package realmauth

import (
	"context"
	"errors"

	"github.com/realmkit/realmauth/role"
)

// SetRoleParent rewires a role's inheritance edge. The edge is validated
// against the live hierarchy first: both roles must exist, belong to the
// same realm, and the edge must not close a cycle. A nil parentID detaches
// the role. Existing access tokens are unaffected; tokens minted after the
// edit carry the new effective permission set.
func (e *Engine) SetRoleParent(ctx context.Context, roleID int64, parentID *int64) error {
	if e == nil || e.roles == nil {
		return ErrEngineNotReady
	}

	if _, err := e.roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, role.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	if parentID != nil {
		if err := e.roleGraph.ValidateParent(ctx, roleID, *parentID); err != nil {
			mapped := mapRoleError(err)
			e.metricInc(MetricRoleEditRejected)
			e.emitAudit(ctx, auditEventRoleParentChange, false, 0, "", mapped, nil)
			return mapped
		}
	}

	if err := e.roles.UpdateInheritFrom(ctx, roleID, parentID); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventRoleParentChange, true, 0, "", nil, nil)

	return nil
}

// EffectivePermissions resolves a role's permission set through its
// inheritance chain, deduplicated and sorted.
func (e *Engine) EffectivePermissions(ctx context.Context, roleCode string) ([]string, error) {
	if e == nil || e.roleGraph == nil {
		return nil, ErrEngineNotReady
	}

	perms, err := e.roleGraph.EffectivePermissions(ctx, roleCode)
	if err != nil {
		return nil, mapRoleError(err)
	}
	return perms, nil
}
