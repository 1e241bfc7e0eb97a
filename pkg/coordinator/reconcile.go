package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/websockets"
)

// DefaultStaleAge is how long an operation may sit in the pending log before
// the reconciler considers it stale.
const DefaultStaleAge = 10 * time.Minute

// ReconcileStale sweeps pending operations older than maxAge and re-checks
// each one against authoritative ledger state. It returns the number of
// entries it retired.
func (c *Coordinator) ReconcileStale(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = DefaultStaleAge
	}
	stale, err := c.Store.ListStalePending(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale pending operations: %w", err)
	}

	retired := 0
	for i := range stale {
		op := stale[i]
		done, err := c.RecheckPending(ctx, &op)
		if err != nil {
			c.Log.Error("re-check failed", "tx_id", op.TxID, "error", err)
			continue
		}
		if done {
			retired++
		}
	}
	c.Log.Info("reconciliation sweep complete", "stale", len(stale), "retired", retired)
	return retired, nil
}

// RecheckPending performs a single status read for a pending operation and
// finalizes it if the transaction has reached a terminal state. Provisional
// entries already confirmed on chain and only need another id-verification
// pass, so they skip the status read. Returns true when the entry was retired
// from the log.
func (c *Coordinator) RecheckPending(ctx context.Context, op *models.PendingOperation) (bool, error) {
	if op.Provisional {
		return c.RepairProvisional(ctx, op)
	}

	status, err := c.Chain.GetTransactionStatus(ctx, op.TxID)
	if err != nil {
		return false, fmt.Errorf("failed to read transaction status: %w", err)
	}

	switch status.State {
	case "pending":
		c.Log.Info("operation still unconfirmed", "tx_id", op.TxID)
		c.scheduleRecheck(ctx, op)
		return false, nil
	case "success":
		value := chain.ExtractOkUint(status.ResultRepr)
		c.finalizeSuccess(ctx, op, value)
		return !op.Provisional, nil
	default:
		c.finalizeAbort(ctx, op, chain.ReasonFromReceipt(status.ResultRepr))
		return true, nil
	}
}

// RepairProvisional re-verifies a provisional entry whose transaction has
// already confirmed. Once the authoritative entity is visible under the
// expected id the entry is retired and clients are told the id is final.
func (c *Coordinator) RepairProvisional(ctx context.Context, op *models.PendingOperation) (bool, error) {
	verified, err := c.verifyExpected(ctx, op)
	if err != nil {
		return false, err
	}
	if !verified {
		return false, nil
	}
	if err := c.Store.RemovePending(ctx, op.TxID); err != nil {
		return false, fmt.Errorf("failed to retire verified pending operation: %w", err)
	}
	c.publish(ctx, websockets.MessageTypeOperationConfirmed, op, op.ExpectedID, false, "")
	return true, nil
}
