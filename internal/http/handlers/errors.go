package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, not on
// the message text.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// The first two are written by middleware.
	ErrCodeRateLimited       = "too_many_requests"
	ErrCodeBadIdempotencyKey = "bad_idempotency_key"
	ErrCodeIdempotencyReused = "idempotency_key_reused"

	ErrCodeAnswerFailed    = "answer_failed"
	ErrCodeCreateFailed    = "create_failed"
	ErrCodeListFailed      = "list_failed"
	ErrCodeUnknownKind     = "unknown_kind"
	ErrCodeAnalyticsFailed = "analytics_failed"
	ErrCodeSettingsFailed  = "settings_failed"
)
