package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/policy"
)

// BookingView is one row of a guest's merged booking list: either an
// optimistic in-flight operation or an authoritative on-chain booking.
type BookingView struct {
	Pending *models.PendingOperation `json:"pending,omitempty"`
	Booking *models.Booking          `json:"booking,omitempty"`
}

// MyBookings returns the guest's bookings with in-flight operations merged
// in. A pending operation that matches an authoritative booking on the
// (property, guest, check-in) tuple has confirmed; the optimistic entry is
// dropped from the view and retired from the log. Pending entries sort
// before authoritative ones.
func (c *Coordinator) MyBookings(ctx context.Context, guest string) ([]BookingView, error) {
	pending, err := c.Store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending operations: %w", err)
	}

	ids, err := c.Chain.GetGuestBookingIDs(ctx, guest)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest booking ids: %w", err)
	}

	bookings := make([]*models.Booking, 0, len(ids))
	for _, id := range ids {
		booking, err := c.Chain.GetBooking(ctx, id)
		if errors.Is(err, chain.ErrNotFound) {
			// Index and entity map can briefly disagree across blocks.
			c.Log.Warn("guest index references missing booking", "booking_id", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read booking %d: %w", id, err)
		}
		bookings = append(bookings, booking)
	}

	views := make([]BookingView, 0, len(pending)+len(bookings))
	for i := range pending {
		op := pending[i]
		if op.Kind != models.KindBooking || op.Guest != guest {
			continue
		}
		if match := matchBooking(&op, bookings); match != nil {
			// Authoritative copy exists: retire the optimistic entry.
			if err := c.Store.RemovePending(ctx, op.TxID); err != nil {
				c.Log.Warn("failed to retire matched pending operation", "tx_id", op.TxID, "error", err)
			}
			continue
		}
		views = append(views, BookingView{Pending: &op})
	}
	for _, booking := range bookings {
		views = append(views, BookingView{Booking: booking})
	}
	return views, nil
}

func matchBooking(op *models.PendingOperation, bookings []*models.Booking) *models.Booking {
	for _, booking := range bookings {
		if op.Matches(booking) {
			return booking
		}
	}
	return nil
}

// Actions evaluates the lifecycle gates for a booking at the current chain
// height.
func (c *Coordinator) Actions(ctx context.Context, bookingID uint64) (*policy.ActionSet, error) {
	booking, err := c.Chain.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	height, err := c.Chain.GetCurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain height: %w", err)
	}
	actions := policy.Evaluate(booking, height)
	return &actions, nil
}
