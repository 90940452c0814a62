package letta

import "time"

// Request and retry defaults.
const (
	// DefaultTimeout is the per-request time budget when none is configured.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the total request attempt budget, including the
	// first try.
	DefaultMaxAttempts = 3

	// DefaultInitialBackoff is the delay after the first failed attempt.
	DefaultInitialBackoff = 500 * time.Millisecond

	// DefaultMaxBackoff caps the exponentially growing retry delay.
	DefaultMaxBackoff = 30 * time.Second

	// DefaultBackoffMultiplier is the retry delay growth factor.
	DefaultBackoffMultiplier = 2.0
)

// Pagination defaults.
const (
	// DefaultPageSize is the page size assumed when pagination params carry
	// no explicit limit. A page shorter than the effective limit is treated
	// as the final page.
	DefaultPageSize = 100
)
