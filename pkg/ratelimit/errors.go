package ratelimit

import "errors"

var (
	// ErrStoreRequired indicates no store was provided.
	ErrStoreRequired = errors.New("ratelimit.store_required")

	// ErrKeyRequired indicates an empty rate limit key.
	ErrKeyRequired = errors.New("ratelimit.key_required")

	// ErrInvalidPolicy indicates the limit or window is not positive.
	ErrInvalidPolicy = errors.New("ratelimit.invalid_policy")

	// ErrStoreUnavailable indicates the backing store is unreachable.
	ErrStoreUnavailable = errors.New("ratelimit.store_unavailable")
)
