// Package coordinator orchestrates the transaction lifecycle: it builds and
// broadcasts contract calls through the wallet boundary, records optimistic
// pending operations, tracks confirmations, and reconciles the pending log
// against authoritative ledger state.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/scheduler"
	"github.com/staynest/booking-coordinator/pkg/storage"
	"github.com/staynest/booking-coordinator/pkg/tx"
	"github.com/staynest/booking-coordinator/pkg/websockets"
)

// blocksPerDay at the chain's ~10 minute block cadence.
const blocksPerDay = 144

// DefaultTrackTimeout bounds a background confirmation track. It comfortably
// covers the poller's default budget (2s x 30 attempts).
const DefaultTrackTimeout = 5 * time.Minute

// ChainReader is the slice of the query facade the coordinator uses.
type ChainReader interface {
	GetProperty(ctx context.Context, id uint64) (*models.Property, error)
	GetBooking(ctx context.Context, id uint64) (*models.Booking, error)
	GetDispute(ctx context.Context, bookingID uint64) (*models.Dispute, error)
	GetUserStats(ctx context.Context, address string) (*models.UserStats, error)
	GetPropertyCounter(ctx context.Context) (uint64, error)
	GetBookingCounter(ctx context.Context) (uint64, error)
	GetGuestBookingIDs(ctx context.Context, guest string) ([]uint64, error)
	GetCurrentHeight(ctx context.Context) (uint64, error)
	GetTransactionStatus(ctx context.Context, txID string) (*chain.TxStatus, error)
}

// Confirmer polls a broadcast transaction to a terminal state.
type Confirmer interface {
	Confirm(ctx context.Context, txID string) (*chain.Outcome, error)
}

// Make sure the chain package satisfies both collaborator interfaces.
var (
	_ ChainReader = (*chain.Client)(nil)
	_ Confirmer   = (*chain.Poller)(nil)
)

// Coordinator wires the submit/confirm/reconcile flow together.
type Coordinator struct {
	Chain       ChainReader
	Confirmer   Confirmer
	Broadcaster tx.Broadcaster
	Store       storage.PendingStore
	Publisher   websockets.Publisher
	Scheduler   scheduler.Scheduler // optional; nil disables re-check scheduling
	Log         *slog.Logger

	// TrackTimeout bounds each background confirmation goroutine.
	TrackTimeout time.Duration

	// outcomes caches terminal poll results per transaction handle so that
	// re-confirming an already-settled handle never re-queries the ledger.
	mu       sync.Mutex
	outcomes map[string]*chain.Outcome
	tracks   sync.WaitGroup
}

// New creates a Coordinator.
func New(chainReader ChainReader, confirmer Confirmer, broadcaster tx.Broadcaster, store storage.PendingStore, publisher websockets.Publisher, log *slog.Logger) *Coordinator {
	if publisher == nil {
		publisher = &websockets.NoOpPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		Chain:        chainReader,
		Confirmer:    confirmer,
		Broadcaster:  broadcaster,
		Store:        store,
		Publisher:    publisher,
		Log:          log,
		TrackTimeout: DefaultTrackTimeout,
		outcomes:     make(map[string]*chain.Outcome),
	}
}

// SubmitResult is the immediate answer to a submit call: either the user
// declined to sign, or a transaction is now in flight.
type SubmitResult struct {
	Cancelled  bool   `json:"cancelled"`
	TxID       string `json:"tx_id,omitempty"`
	ExpectedID uint64 `json:"expected_id,omitempty"`
}

// SubmitBooking books a stay. On a signed broadcast it records exactly one
// pending operation and starts tracking the confirmation in the background.
func (c *Coordinator) SubmitBooking(ctx context.Context, guest string, propertyID, checkInHeight, checkOutHeight uint64) (*SubmitResult, error) {
	payload, err := tx.BookStay(propertyID, checkInHeight, checkOutHeight)
	if err != nil {
		return nil, err
	}

	property, err := c.Chain.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to read property %d: %w", propertyID, err)
	}

	// The id the contract will assign if this is the only writer in flight.
	// Best effort only: a failed read just disables the fallback.
	expectedID, err := c.Chain.GetBookingCounter(ctx)
	if err != nil {
		c.Log.Warn("failed to read booking counter, id fallback disabled", "error", err)
		expectedID = 0
	}

	result, err := c.Broadcaster.Broadcast(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	if result.Cancelled {
		// User declined to sign: no pending entry, no polling.
		return &SubmitResult{Cancelled: true}, nil
	}

	nights := (checkOutHeight - checkInHeight) / blocksPerDay
	if nights == 0 {
		nights = 1
	}

	op := &models.PendingOperation{
		TxID:           result.TxID,
		OpID:           uuid.New().String(),
		Kind:           models.KindBooking,
		PropertyID:     propertyID,
		Guest:          guest,
		CheckInHeight:  checkInHeight,
		CheckOutHeight: checkOutHeight,
		TotalAmount:    property.PricePerNight * nights,
		ExpectedID:     expectedID,
		Status:         models.PendingStatusPending,
		SubmittedAt:    time.Now(),
	}
	if err := c.Store.AddPending(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to record pending operation: %w", err)
	}

	c.trackAsync(op)

	return &SubmitResult{TxID: result.TxID, ExpectedID: expectedID}, nil
}

// SubmitListing lists a property. Like SubmitBooking it records a pending
// operation on a signed broadcast; Guest holds the lister's address.
func (c *Coordinator) SubmitListing(ctx context.Context, owner string, pricePerNight, locationTag uint64, metadataRef string) (*SubmitResult, error) {
	payload, err := tx.ListProperty(pricePerNight, locationTag, metadataRef)
	if err != nil {
		return nil, err
	}

	expectedID, err := c.Chain.GetPropertyCounter(ctx)
	if err != nil {
		c.Log.Warn("failed to read property counter, id fallback disabled", "error", err)
		expectedID = 0
	}

	result, err := c.Broadcaster.Broadcast(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	if result.Cancelled {
		return &SubmitResult{Cancelled: true}, nil
	}

	op := &models.PendingOperation{
		TxID:        result.TxID,
		OpID:        uuid.New().String(),
		Kind:        models.KindListing,
		Guest:       owner,
		TotalAmount: 0,
		ExpectedID:  expectedID,
		Status:      models.PendingStatusPending,
		SubmittedAt: time.Now(),
	}
	if err := c.Store.AddPending(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to record pending operation: %w", err)
	}

	c.trackAsync(op)

	return &SubmitResult{TxID: result.TxID, ExpectedID: expectedID}, nil
}

// ReleasePayment releases the escrow for a booking to the host.
func (c *Coordinator) ReleasePayment(ctx context.Context, bookingID uint64) (*SubmitResult, error) {
	payload, err := tx.ReleasePayment(bookingID)
	if err != nil {
		return nil, err
	}
	return c.submitSettling(ctx, payload, models.KindRelease, bookingID)
}

// CancelBooking cancels a booking; the contract computes the refund split.
func (c *Coordinator) CancelBooking(ctx context.Context, bookingID uint64) (*SubmitResult, error) {
	payload, err := tx.CancelBooking(bookingID)
	if err != nil {
		return nil, err
	}
	return c.submitSettling(ctx, payload, models.KindCancel, bookingID)
}

// SubmitReview submits a review for a completed booking.
func (c *Coordinator) SubmitReview(ctx context.Context, bookingID, rating uint64, comment string) (*SubmitResult, error) {
	payload, err := tx.SubmitReview(bookingID, rating, comment)
	if err != nil {
		return nil, err
	}
	return c.submitSettling(ctx, payload, models.KindReview, bookingID)
}

// RaiseDispute raises a dispute over a booking.
func (c *Coordinator) RaiseDispute(ctx context.Context, bookingID uint64, reason, evidence string) (*SubmitResult, error) {
	payload, err := tx.RaiseDispute(bookingID, reason, evidence)
	if err != nil {
		return nil, err
	}
	return c.submitSettling(ctx, payload, models.KindDispute, bookingID)
}

// ResolveDispute resolves a dispute. The contract enforces the resolver role
// and rejects a second resolution; after a success the coordinator never
// resubmits.
func (c *Coordinator) ResolveDispute(ctx context.Context, bookingID uint64, resolution string, refundPercentage uint64) (*SubmitResult, error) {
	payload, err := tx.ResolveDispute(bookingID, resolution, refundPercentage)
	if err != nil {
		return nil, err
	}
	return c.submitSettling(ctx, payload, models.KindResolution, bookingID)
}

// submitSettling broadcasts an operation against an existing booking. These
// get no pending entry (the entity already exists on chain); the outcome is
// still tracked and pushed to connected clients.
func (c *Coordinator) submitSettling(ctx context.Context, payload *tx.Payload, kind models.OperationKind, bookingID uint64) (*SubmitResult, error) {
	result, err := c.Broadcaster.Broadcast(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	if result.Cancelled {
		return &SubmitResult{Cancelled: true}, nil
	}

	c.trackSettlingAsync(result.TxID, kind, bookingID)

	return &SubmitResult{TxID: result.TxID}, nil
}

// DismissPending removes a pending operation at the user's request.
func (c *Coordinator) DismissPending(ctx context.Context, txID string) error {
	return c.Store.RemovePending(ctx, txID)
}

// ListPending returns the current pending-operation log.
func (c *Coordinator) ListPending(ctx context.Context) ([]models.PendingOperation, error) {
	return c.Store.ListPending(ctx)
}

// Outcome returns the cached terminal outcome for a handle, if one exists.
func (c *Coordinator) Outcome(txID string) (*chain.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.outcomes[txID]
	return out, ok
}

// Wait blocks until all background confirmation tracks have finished. Used
// on shutdown and by tests.
func (c *Coordinator) Wait() {
	c.tracks.Wait()
}

func (c *Coordinator) trackTimeout() time.Duration {
	if c.TrackTimeout > 0 {
		return c.TrackTimeout
	}
	return DefaultTrackTimeout
}
