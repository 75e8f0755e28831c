package internaldefs

import (
	realmauth "github.com/realmkit/realmauth"
)

// CounterDef binds one engine counter to its exported metric name.
type CounterDef struct {
	ID   realmauth.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its exported metric name.
type HistogramDef struct {
	ID   realmauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: realmauth.MetricLoginSuccess, Name: "realmauth_login_success_total", Help: "Successful login attempts."},
	{ID: realmauth.MetricLoginFailure, Name: "realmauth_login_failure_total", Help: "Failed login attempts."},
	{ID: realmauth.MetricLoginLocked, Name: "realmauth_login_locked_total", Help: "Login attempts refused on a locked account."},
	{ID: realmauth.MetricLoginDisabled, Name: "realmauth_login_disabled_total", Help: "Login attempts refused for a non-active account status."},
	{ID: realmauth.MetricRegisterSuccess, Name: "realmauth_register_success_total", Help: "Successful account registrations."},
	{ID: realmauth.MetricRegisterDuplicate, Name: "realmauth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: realmauth.MetricRefreshSuccess, Name: "realmauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: realmauth.MetricRefreshFailure, Name: "realmauth_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: realmauth.MetricRefreshReuseDetected, Name: "realmauth_refresh_reuse_detected_total", Help: "Refresh tokens presented after rotation."},
	{ID: realmauth.MetricSessionCreated, Name: "realmauth_session_created_total", Help: "Created sessions."},
	{ID: realmauth.MetricSessionInvalidated, Name: "realmauth_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: realmauth.MetricLogout, Name: "realmauth_logout_total", Help: "Single-realm logout operations."},
	{ID: realmauth.MetricLogoutAll, Name: "realmauth_logout_all_total", Help: "All-realm logout operations."},
	{ID: realmauth.MetricPasswordChangeSuccess, Name: "realmauth_password_change_success_total", Help: "Successful password changes."},
	{ID: realmauth.MetricPasswordChangeInvalidOld, Name: "realmauth_password_change_invalid_old_total", Help: "Password changes with invalid old password."},
	{ID: realmauth.MetricPasswordChangeReuseRejected, Name: "realmauth_password_change_reuse_rejected_total", Help: "Password changes rejected for reuse."},
	{ID: realmauth.MetricPasswordResetSuccess, Name: "realmauth_password_reset_success_total", Help: "Administrative password resets."},
	{ID: realmauth.MetricAccountLockedAdmin, Name: "realmauth_account_locked_admin_total", Help: "Administrative account lock operations."},
	{ID: realmauth.MetricAccountLockedAuto, Name: "realmauth_account_locked_auto_total", Help: "Lockouts tripped by the failure threshold."},
	{ID: realmauth.MetricAccountUnlocked, Name: "realmauth_account_unlocked_total", Help: "Account unlock operations."},
	{ID: realmauth.MetricAccountStatusChanged, Name: "realmauth_account_status_changed_total", Help: "Account status transitions."},
	{ID: realmauth.MetricRoleEditRejected, Name: "realmauth_role_edit_rejected_total", Help: "Role inheritance edits rejected for cycles or realm mismatch."},
}

// HistogramDefs lists every exported histogram in a stable order.
var HistogramDefs = []HistogramDef{
	{ID: realmauth.MetricValidateLatency, Name: "realmauth_validate_latency_seconds", Help: "Access token validation latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
