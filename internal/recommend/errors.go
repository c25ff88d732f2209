package recommend

import "errors"

var (
	// ErrUnauthenticated means no identity could be resolved for the
	// caller. Surfaced as an access-denied response; never retried.
	ErrUnauthenticated = errors.New("no identity")

	// ErrUnverified means the identity resolved but the profile is
	// missing or not allow-listed. Distinct from ErrUnauthenticated so
	// the client can prompt differently.
	ErrUnverified = errors.New("user not verified")
)
