package constant

// Token kinds carried in the token_type claim. A refresh token presented
// where an access token is expected must not verify, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Failure reasons recorded on login attempts.
const (
	FailureReasonUnknownEmail    = "unknown_email"
	FailureReasonBadPassword     = "bad_password"
	FailureReasonAccountLocked   = "account_locked"
	FailureReasonRateLimited     = "rate_limited"
	FailureReasonAccountDisabled = "account_disabled"
)

const DefaultUserRole = "user"
