package storage

import (
	"context"
	"time"

	"github.com/staynest/booking-coordinator/pkg/models"
)

// PendingReader defines the interface for reading the pending-operation log.
type PendingReader interface {
	// GetPending retrieves a pending operation by its transaction id.
	GetPending(ctx context.Context, txID string) (*models.PendingOperation, error)

	// ListPending retrieves all pending operations ordered by submission time.
	ListPending(ctx context.Context) ([]models.PendingOperation, error)

	// ListStalePending retrieves pending operations submitted longer ago than
	// maxAge, candidates for a reconciliation re-check.
	ListStalePending(ctx context.Context, maxAge time.Duration) ([]models.PendingOperation, error)
}

// PendingWriter defines the interface for mutating the pending-operation log.
type PendingWriter interface {
	// AddPending records a broadcast-but-unconfirmed operation. Adding the
	// same transaction id twice is a no-op, not a duplicate.
	AddPending(ctx context.Context, op *models.PendingOperation) error

	// UpdatePending overwrites an existing pending operation (e.g. to clear
	// its provisional flag).
	UpdatePending(ctx context.Context, op *models.PendingOperation) error

	// RemovePending deletes a pending operation once its transaction reached
	// a terminal outcome or the user dismissed it. Removing an absent id is
	// not an error.
	RemovePending(ctx context.Context, txID string) error
}

// PendingStore combines the reader and writer interfaces.
type PendingStore interface {
	PendingReader
	PendingWriter
}
