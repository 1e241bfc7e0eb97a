package chain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a read-only call reports that the requested
// entity does not exist.
var ErrNotFound = errors.New("entity not found on chain")

// RateLimitError signals that the query service rejected the call for rate
// limiting reasons. The request queue retries these once; anything else
// propagates immediately.
type RateLimitError struct {
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("query service throttled request (status %d)", e.StatusCode)
}

// Throttle marks the error as retryable by the request queue.
func (e *RateLimitError) Throttle() bool { return true }

// AbortError is a terminal transaction failure, carrying the best-effort
// human-readable reason derived from the receipt.
type AbortError struct {
	TxID   string
	State  TerminalState
	Reason string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("transaction %s aborted: %s", e.TxID, e.Reason)
}
