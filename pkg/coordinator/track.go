package coordinator

import (
	"context"
	"errors"

	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/scheduler"
	"github.com/staynest/booking-coordinator/pkg/websockets"
)

// confirm polls the handle to a terminal state, consulting the outcome cache
// first so a handle settles against the ledger at most once.
func (c *Coordinator) confirm(ctx context.Context, txID string) (*chain.Outcome, error) {
	c.mu.Lock()
	if out, ok := c.outcomes[txID]; ok {
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	out, err := c.Confirmer.Confirm(ctx, txID)
	if err != nil {
		return nil, err
	}

	// A poll timeout is not a verdict; only real terminal states are cached.
	if out.State != chain.StateTimeout {
		c.mu.Lock()
		c.outcomes[txID] = out
		c.mu.Unlock()
	}
	return out, nil
}

func (c *Coordinator) trackAsync(op *models.PendingOperation) {
	c.tracks.Add(1)
	go func() {
		defer c.tracks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.trackTimeout())
		defer cancel()
		c.track(ctx, op)
	}()
}

// track drives a pending operation to its terminal state and updates the
// pending log and connected clients accordingly.
func (c *Coordinator) track(ctx context.Context, op *models.PendingOperation) {
	out, err := c.confirm(ctx, op.TxID)
	if err != nil {
		c.Log.Error("confirmation track aborted", "tx_id", op.TxID, "error", err)
		return
	}

	switch {
	case out.State == chain.StateSuccess:
		c.finalizeSuccess(ctx, op, out.Value)
	case out.State.Aborted():
		c.finalizeAbort(ctx, op, out.Reason)
	default: // timeout: leave the entry for the reconciler
		c.Log.Warn("confirmation still pending after poll budget", "tx_id", op.TxID)
		c.publish(ctx, websockets.MessageTypeOperationStillPending, op, op.ExpectedID, op.Provisional, "")
		c.scheduleRecheck(ctx, op)
	}
}

// finalizeSuccess resolves the entity id for a confirmed operation and, when
// the authoritative entity is visible, retires the pending entry. If the id
// could not be extracted from the receipt and the expected-id fallback cannot
// be verified against the ledger, the entry stays marked provisional for the
// reconciler.
func (c *Coordinator) finalizeSuccess(ctx context.Context, op *models.PendingOperation, value *uint64) {
	entityID := op.ExpectedID
	provisional := value == nil
	if value != nil {
		entityID = *value
	}

	if provisional {
		verified, err := c.verifyExpected(ctx, op)
		if err != nil {
			c.Log.Warn("could not verify fallback id, keeping provisional entry",
				"tx_id", op.TxID, "expected_id", op.ExpectedID, "error", err)
		}
		provisional = err != nil || !verified
	}

	if provisional {
		// The entry keeps its live status so listings and the reconciler still
		// see it; only the flag records that the id is unverified.
		op.Provisional = true
		if err := c.Store.UpdatePending(ctx, op); err != nil {
			c.Log.Error("failed to mark pending operation provisional", "tx_id", op.TxID, "error", err)
		}
		c.publish(ctx, websockets.MessageTypeOperationConfirmed, op, entityID, true, "")
		return
	}

	if err := c.Store.RemovePending(ctx, op.TxID); err != nil {
		c.Log.Error("failed to retire confirmed pending operation", "tx_id", op.TxID, "error", err)
	}
	c.Log.Info("operation confirmed", "tx_id", op.TxID, "kind", op.Kind, "entity_id", entityID)
	c.publish(ctx, websockets.MessageTypeOperationConfirmed, op, entityID, false, "")
}

func (c *Coordinator) finalizeAbort(ctx context.Context, op *models.PendingOperation, reason string) {
	if err := c.Store.RemovePending(ctx, op.TxID); err != nil {
		c.Log.Error("failed to retire aborted pending operation", "tx_id", op.TxID, "error", err)
	}
	c.Log.Info("operation aborted", "tx_id", op.TxID, "kind", op.Kind, "reason", reason)
	c.publish(ctx, websockets.MessageTypeOperationFailed, op, 0, false, reason)
}

// verifyExpected checks whether the entity under the expected id on chain is
// the one this operation created.
func (c *Coordinator) verifyExpected(ctx context.Context, op *models.PendingOperation) (bool, error) {
	if op.ExpectedID == 0 {
		return false, nil
	}
	switch op.Kind {
	case models.KindListing:
		property, err := c.Chain.GetProperty(ctx, op.ExpectedID)
		if errors.Is(err, chain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return property.Owner == op.Guest, nil
	default:
		booking, err := c.Chain.GetBooking(ctx, op.ExpectedID)
		if errors.Is(err, chain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return op.Matches(booking), nil
	}
}

// trackSettlingAsync tracks an operation against an existing booking. There
// is no pending entry to retire; clients only need the verdict.
func (c *Coordinator) trackSettlingAsync(txID string, kind models.OperationKind, bookingID uint64) {
	c.tracks.Add(1)
	go func() {
		defer c.tracks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.trackTimeout())
		defer cancel()

		out, err := c.confirm(ctx, txID)
		if err != nil {
			c.Log.Error("confirmation track aborted", "tx_id", txID, "error", err)
			return
		}

		event := websockets.OperationEventPayload{
			TxID:     txID,
			Kind:     kind,
			EntityID: bookingID,
		}
		switch {
		case out.State == chain.StateSuccess:
			c.Log.Info("operation confirmed", "tx_id", txID, "kind", kind, "booking_id", bookingID)
			c.publishEvent(ctx, websockets.MessageTypeOperationConfirmed, event)
		case out.State.Aborted():
			event.Reason = out.Reason
			c.Log.Info("operation aborted", "tx_id", txID, "kind", kind, "booking_id", bookingID, "reason", out.Reason)
			c.publishEvent(ctx, websockets.MessageTypeOperationFailed, event)
		default:
			c.Log.Warn("confirmation still pending after poll budget", "tx_id", txID)
			c.publishEvent(ctx, websockets.MessageTypeOperationStillPending, event)
		}
	}()
}

func (c *Coordinator) publish(ctx context.Context, messageType websockets.MessageType, op *models.PendingOperation, entityID uint64, provisional bool, reason string) {
	c.publishEvent(ctx, messageType, websockets.OperationEventPayload{
		TxID:        op.TxID,
		Kind:        op.Kind,
		EntityID:    entityID,
		Provisional: provisional,
		Reason:      reason,
	})
}

func (c *Coordinator) publishEvent(ctx context.Context, messageType websockets.MessageType, payload websockets.OperationEventPayload) {
	message := websockets.Message{Type: messageType, Payload: payload}
	if err := c.Publisher.Publish(ctx, message); err != nil {
		c.Log.Warn("failed to publish operation event", "type", messageType, "error", err)
	}
}

func (c *Coordinator) scheduleRecheck(ctx context.Context, op *models.PendingOperation) {
	if c.Scheduler == nil {
		return
	}
	if err := c.Scheduler.ScheduleRecheck(ctx, op, scheduler.DefaultRecheckDelaySeconds); err != nil {
		c.Log.Error("failed to schedule re-check", "tx_id", op.TxID, "error", err)
	}
}
