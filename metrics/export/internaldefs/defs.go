package internaldefs

import (
	subAuth "github.com/MrEthical07/subAuth"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   subAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram.
type HistogramDef struct {
	ID   subAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for [subAuth.Engine.AuditDropped].
const AuditDroppedName = "subauth_audit_dropped_total"

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: subAuth.MetricSignInSuccess, Name: "subauth_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: subAuth.MetricSignInFailure, Name: "subauth_sign_in_failure_total", Help: "Sign-ins rejected for credentials or account state."},
	{ID: subAuth.MetricSignInRateLimited, Name: "subauth_sign_in_rate_limited_total", Help: "Sign-ins rejected by the failure throttle."},
	{ID: subAuth.MetricSignUpSuccess, Name: "subauth_sign_up_success_total", Help: "Created identities."},
	{ID: subAuth.MetricSignUpDuplicate, Name: "subauth_sign_up_duplicate_total", Help: "Sign-ups rejected for a taken email."},
	{ID: subAuth.MetricRefreshSuccess, Name: "subauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: subAuth.MetricRefreshFailure, Name: "subauth_refresh_failure_total", Help: "Rejected refresh rotations."},
	{ID: subAuth.MetricRefreshReplayRejected, Name: "subauth_refresh_replay_rejected_total", Help: "Refreshes presenting an unknown or consumed token."},
	{ID: subAuth.MetricSessionCreated, Name: "subauth_session_created_total", Help: "Granted sessions."},
	{ID: subAuth.MetricSessionRevoked, Name: "subauth_session_revoked_total", Help: "Revoked sessions."},
	{ID: subAuth.MetricSessionSwept, Name: "subauth_session_swept_total", Help: "Expired sessions removed by sweeps."},
	{ID: subAuth.MetricSignOut, Name: "subauth_sign_out_total", Help: "Single-session sign-outs."},
	{ID: subAuth.MetricSignOutAll, Name: "subauth_sign_out_all_total", Help: "Sign-out-all operations."},
	{ID: subAuth.MetricAccessRejected, Name: "subauth_access_rejected_total", Help: "Access tokens that failed verification."},
	{ID: subAuth.MetricRoleChange, Name: "subauth_role_change_total", Help: "Applied role changes."},
	{ID: subAuth.MetricRoleChangeDenied, Name: "subauth_role_change_denied_total", Help: "Role changes refused by the hierarchy."},
	{ID: subAuth.MetricPasswordChangeSuccess, Name: "subauth_password_change_success_total", Help: "Password changes."},
	{ID: subAuth.MetricPasswordChangeInvalidOld, Name: "subauth_password_change_invalid_old_total", Help: "Password changes with a wrong current password."},
	{ID: subAuth.MetricAccountDeactivated, Name: "subauth_account_deactivated_total", Help: "Account deactivations."},
	{ID: subAuth.MetricAccountDeleted, Name: "subauth_account_deleted_total", Help: "Account deletions."},
	{ID: subAuth.MetricStoreUnavailable, Name: "subauth_store_unavailable_total", Help: "Operations failed by a backing store."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: subAuth.MetricValidateLatency, Name: "subauth_validate_latency_seconds", Help: "Access-token verification latency."},
	{ID: subAuth.MetricSignInLatency, Name: "subauth_sign_in_latency_seconds", Help: "Sign-in latency."},
	{ID: subAuth.MetricRefreshLatency, Name: "subauth_refresh_latency_seconds", Help: "Refresh rotation latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters without native
// histograms.
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

// NormalizeBuckets copies raw into a fixed eight-bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
