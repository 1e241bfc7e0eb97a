package scheduler

import (
	"context"

	"github.com/staynest/booking-coordinator/pkg/models"
)

// DefaultRecheckDelaySeconds spaces out re-checks of an operation that is
// still unconfirmed after a full poll budget.
const DefaultRecheckDelaySeconds int32 = 120

// Scheduler defines the interface for a component that schedules a pending
// operation for a later confirmation re-check.
type Scheduler interface {
	// ScheduleRecheck enqueues a pending operation to be re-checked after
	// delaySeconds.
	ScheduleRecheck(ctx context.Context, op *models.PendingOperation, delaySeconds int32) error
}
