package domain

import "errors"

// Sentinel error kinds shared across the gateway. They exist so
// callers can branch on `errors.Is` instead of string-matching error
// messages.
var (
	// ErrValidation marks a rejected intake payload (blank correlation
	// id, non-positive amount). Surfaced as HTTP 400.
	ErrValidation = errors.New("validation error")

	// ErrUpstreamUnavailable marks a processor that is unhealthy or
	// timed out on this attempt. The Dispatcher tries the next
	// processor, or requeues if none remain.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamTerminalReject marks an HTTP 422 from a processor: the
	// payment is decided (invalid, will not be retried anywhere) and
	// must still be committed to the ledger.
	ErrUpstreamTerminalReject = errors.New("upstream terminal reject")

	// ErrStorage marks a ledger write failure after a terminal
	// response was already observed — the one remaining correctness
	// hole in the gateway's design.
	ErrStorage = errors.New("storage error")

	// ErrParse marks a malformed timestamp in a summary query or a
	// malformed health-probe response body. Summary callers swallow
	// this and respond with zeros; health probes swallow it and mark
	// the processor unhealthy.
	ErrParse = errors.New("parse error")
)
