package billing

import "errors"

var (
	// ErrInvalidSignature means the payload could not be authenticated. The
	// ingestion endpoint responds 401 and stores nothing.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrSubscriptionNotFound is raised when an event references a
	// subscription that has no local row yet. The queue retries it, which
	// tolerates subscription events racing ahead of payment.succeeded.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrMissingUserReference means the payment payload carries no usable
	// app_user_id in its metadata. Retrying cannot fix it.
	ErrMissingUserReference = errors.New("missing app_user_id in payment metadata")

	// ErrInvalidAmount means an amount field is absent, non-numeric or negative.
	ErrInvalidAmount = errors.New("invalid amount")
)

// IsRetryable reports whether a later attempt could succeed. The queue does
// not consult this today (it retries every failure until attempts exhaust,
// matching the provider-facing contract), but the distinction is kept so a
// stricter retry policy can use it.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrMissingUserReference) || errors.Is(err, ErrInvalidAmount) {
		return false
	}
	return true
}
