package realmauth

import (
	"context"
	"errors"
	"testing"
)

func TestSetRoleParentRejectsCycle(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	// support already inherits from operator; closing the loop is refused.
	child := int64(2)
	if err := h.engine.SetRoleParent(ctx, 3, &child); !errors.Is(err, ErrRoleCycle) {
		t.Fatalf("expected ErrRoleCycle, got %v", err)
	}

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricRoleEditRejected] != 1 {
		t.Fatalf("expected rejected edit counted, got %d", snap.Counters[MetricRoleEditRejected])
	}
}

func TestSetRoleParentRejectsSelf(t *testing.T) {
	h := newTestHarness(t)

	self := int64(1)
	if err := h.engine.SetRoleParent(context.Background(), 1, &self); !errors.Is(err, ErrRoleCycle) {
		t.Fatalf("expected ErrRoleCycle for self edge, got %v", err)
	}
}

func TestSetRoleParentRejectsCrossRealm(t *testing.T) {
	h := newTestHarness(t)

	// member is end-user; operator is admin.
	parent := int64(3)
	if err := h.engine.SetRoleParent(context.Background(), 1, &parent); !errors.Is(err, ErrCrossRealmInheritance) {
		t.Fatalf("expected ErrCrossRealmInheritance, got %v", err)
	}
}

func TestSetRoleParentUnknownRole(t *testing.T) {
	h := newTestHarness(t)

	if err := h.engine.SetRoleParent(context.Background(), 99, nil); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}

	missing := int64(99)
	if err := h.engine.SetRoleParent(context.Background(), 1, &missing); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound for missing parent, got %v", err)
	}
}

func TestSetRoleParentDetach(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if err := h.engine.SetRoleParent(ctx, 2, nil); err != nil {
		t.Fatalf("detach: %v", err)
	}

	perms, err := h.engine.EffectivePermissions(ctx, "support")
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 1 || perms[0] != "tickets.read" {
		t.Fatalf("expected only own permissions after detach, got %v", perms)
	}
}

func TestEffectivePermissionsInheritsChain(t *testing.T) {
	h := newTestHarness(t)

	perms, err := h.engine.EffectivePermissions(context.Background(), "support")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"accounts.read", "tickets.read"}
	if len(perms) != len(want) {
		t.Fatalf("expected %v, got %v", want, perms)
	}
	for i := range want {
		if perms[i] != want[i] {
			t.Fatalf("expected sorted %v, got %v", want, perms)
		}
	}
}

func TestEffectivePermissionsUnknownRole(t *testing.T) {
	h := newTestHarness(t)

	if _, err := h.engine.EffectivePermissions(context.Background(), "ghost"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}
