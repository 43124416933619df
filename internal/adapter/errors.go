package adapter

import "errors"

// Sentinel errors mapped from remote API responses. Callers match with
// [errors.Is]; the engine's retry policy is derived from them via
// [IsTransient] and [IsPermanent].
var (
	// ErrVersionConflict is returned when an update/delete precondition
	// version no longer matches the server's current version. Routed to the
	// conflict detector, never retried as-is.
	ErrVersionConflict = errors.New("version conflict")

	// ErrIDCollision is returned when a create hits an already-existing ID.
	// Pathological with UUIDv7 client IDs; treated as a hard conflict.
	ErrIDCollision = errors.New("entity id collision")

	// ErrBadRequest is returned for 4xx validation rejections. Permanent: the
	// same payload will never succeed, so the mutation is surfaced to the
	// user instead of retried.
	ErrBadRequest = errors.New("remote rejected request")

	// ErrUnauthorized is returned for 401/403 responses. Permanent until the
	// token is reconfigured.
	ErrUnauthorized = errors.New("remote authorization failed")

	// ErrNotFound is returned for 404 on operations where absence is not an
	// expected state (Fetch maps absence to a zero snapshot instead).
	ErrNotFound = errors.New("remote entity not found")

	// ErrRemoteUnavailable is returned for 5xx responses and transport-level
	// failures. Transient: retried with exponential backoff.
	ErrRemoteUnavailable = errors.New("remote unavailable")
)

// IsTransient reports whether err represents a condition worth retrying with
// backoff. Anything that is not an explicit permanent rejection or a version
// conflict counts as transient — an unreadable response or a dropped
// connection says nothing about the payload's validity.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !IsPermanent(err) && !errors.Is(err, ErrVersionConflict) && !errors.Is(err, ErrIDCollision)
}

// IsPermanent reports whether err is a client-side rejection that retrying
// the identical payload cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound)
}
