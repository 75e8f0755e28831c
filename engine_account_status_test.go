package realmauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSetAccountStatusRevokesSessions(t *testing.T) {
	h := newTestHarness(t)
	account := h.registerAccount(t, "alice", "Str0ng!Pass", "member")
	ctx := context.Background()

	pair, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass")
	if err != nil {
		t.Fatal(err)
	}

	if err := h.engine.SuspendAccount(ctx, account.ID); err != nil {
		t.Fatalf("SuspendAccount: %v", err)
	}

	if _, err := h.engine.Refresh(ctx, RealmEndUser, pair.RefreshToken); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if _, err := h.engine.SessionInfo(ctx, account.ID, RealmEndUser); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestSoftDeleteKeepsRecord(t *testing.T) {
	h := newTestHarness(t)
	account := h.registerAccount(t, "alice", "Str0ng!Pass", "member")
	ctx := context.Background()

	if err := h.engine.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	stored, err := h.accounts.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("record must survive soft delete: %v", err)
	}
	if stored.Status != AccountDeleted {
		t.Fatalf("expected deleted status, got %s", stored.Status)
	}

	if _, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass"); !errors.Is(err, ErrAccountDeleted) {
		t.Fatalf("expected ErrAccountDeleted, got %v", err)
	}
}

func TestReactivateAccount(t *testing.T) {
	h := newTestHarness(t)
	account := h.registerAccount(t, "alice", "Str0ng!Pass", "member")
	ctx := context.Background()

	if err := h.engine.DisableAccount(ctx, account.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected disabled, got %v", err)
	}

	if err := h.engine.ActivateAccount(ctx, account.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass"); err != nil {
		t.Fatalf("login after reactivation: %v", err)
	}
}

func TestSetAccountStatusUnknownAccount(t *testing.T) {
	h := newTestHarness(t)
	if err := h.engine.BanAccount(context.Background(), 9999); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLockAccountWithDuration(t *testing.T) {
	h := newTestHarness(t)
	account := h.registerAccount(t, "alice", "Str0ng!Pass", "member")
	ctx := context.Background()

	pair, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass")
	if err != nil {
		t.Fatal(err)
	}

	if err := h.engine.LockAccount(ctx, account.ID, time.Hour, "abuse report"); err != nil {
		t.Fatalf("LockAccount: %v", err)
	}

	if _, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if _, err := h.engine.Refresh(ctx, RealmEndUser, pair.RefreshToken); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected refresh refused, got %v", err)
	}

	h.clock.Advance(61 * time.Minute)
	if _, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass"); err != nil {
		t.Fatalf("login after lock elapsed: %v", err)
	}
}

func TestLockAccountPermanent(t *testing.T) {
	h := newTestHarness(t)
	account := h.registerAccount(t, "alice", "Str0ng!Pass", "member")
	ctx := context.Background()

	if err := h.engine.LockAccount(ctx, account.ID, 0, "pending investigation"); err != nil {
		t.Fatal(err)
	}

	h.clock.Advance(365 * 24 * time.Hour)
	if _, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected permanent lock to hold, got %v", err)
	}

	if err := h.engine.UnlockAccount(ctx, account.ID); err != nil {
		t.Fatalf("UnlockAccount: %v", err)
	}
	if _, err := h.engine.Login(ctx, RealmEndUser, "alice", "Str0ng!Pass"); err != nil {
		t.Fatalf("login after unlock: %v", err)
	}
}

func TestUnlockClearsFailureCounter(t *testing.T) {
	h := newTestHarness(t)
	account := h.registerAccount(t, "alice", "Str0ng!Pass", "member")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = h.engine.Login(ctx, RealmEndUser, "alice", "wrong")
	}
	if err := h.engine.UnlockAccount(ctx, account.ID); err != nil {
		t.Fatal(err)
	}

	stored, _ := h.accounts.FindByID(ctx, account.ID)
	if stored.FailedLoginCount != 0 || stored.LockedUntil != nil {
		t.Fatalf("expected cleared security state, got %+v", stored)
	}
}
