package internaldefs

import (
	vms "github.com/Code4Bharat1/VMS-BACKEND"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   vms.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   vms.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for vms.Engine.AuditDropped.
const AuditDroppedName = "vms_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: vms.MetricLoginSuccess, Name: "vms_login_success_total", Help: "Logins that issued a token pair."},
	{ID: vms.MetricLoginFailure, Name: "vms_login_failure_total", Help: "Rejected logins."},
	{ID: vms.MetricLoginChallengeRequired, Name: "vms_login_challenge_required_total", Help: "Logins rejected for a missing challenge."},
	{ID: vms.MetricLoginChallengeInvalid, Name: "vms_login_challenge_invalid_total", Help: "Logins rejected for a wrong or spent challenge."},
	{ID: vms.MetricChallengeIssued, Name: "vms_challenge_issued_total", Help: "Issued image challenges."},
	{ID: vms.MetricRefreshSuccess, Name: "vms_refresh_success_total", Help: "Refreshes that minted an access token."},
	{ID: vms.MetricRefreshFailure, Name: "vms_refresh_failure_total", Help: "Rejected refreshes."},
	{ID: vms.MetricRefreshRevoked, Name: "vms_refresh_revoked_total", Help: "Refresh tokens that verified but were superseded."},
	{ID: vms.MetricRefreshRotated, Name: "vms_refresh_rotated_total", Help: "Refreshes that rotated the stored reference."},
	{ID: vms.MetricSessionCreated, Name: "vms_session_created_total", Help: "Bound refresh references."},
	{ID: vms.MetricSessionInvalidated, Name: "vms_session_invalidated_total", Help: "References cleared by a password change."},
	{ID: vms.MetricLogout, Name: "vms_logout_total", Help: "Logouts that cleared a reference."},
	{ID: vms.MetricAuthenticateFailure, Name: "vms_authenticate_failure_total", Help: "Rejected access tokens."},
	{ID: vms.MetricAuthorizationDenied, Name: "vms_authorization_denied_total", Help: "Failed role checks."},
	{ID: vms.MetricAccountCreationSuccess, Name: "vms_account_creation_success_total", Help: "Created accounts."},
	{ID: vms.MetricAccountCreationDuplicate, Name: "vms_account_creation_duplicate_total", Help: "Account creations rejected for a taken email."},
	{ID: vms.MetricPasswordChangeSuccess, Name: "vms_password_change_success_total", Help: "Successful password changes."},
	{ID: vms.MetricPasswordChangeInvalidOld, Name: "vms_password_change_invalid_old_total", Help: "Password changes with a wrong current password."},
	{ID: vms.MetricPasswordChangeReuseRejected, Name: "vms_password_change_reuse_rejected_total", Help: "Password changes rejected for reuse."},
	{ID: vms.MetricProfileUpdated, Name: "vms_profile_updated_total", Help: "Profile updates."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: vms.MetricLoginLatency, Name: "vms_login_latency_seconds", Help: "Login latency."},
	{ID: vms.MetricValidateLatency, Name: "vms_validate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// cannot carry a le label.
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
