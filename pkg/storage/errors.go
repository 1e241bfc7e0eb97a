package storage

import "errors"

// ErrPendingNotFound is returned when a pending operation does not exist for
// the given transaction id.
var ErrPendingNotFound = errors.New("pending operation not found")
