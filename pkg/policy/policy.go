// Package policy computes the legal action set and refund economics for a
// booking from its on-chain state and the current block height. Everything
// here is pure: callers re-evaluate on every render because height advances
// continuously, and nothing is cached.
package policy

import (
	"github.com/staynest/booking-coordinator/pkg/models"
)

// Refund thresholds in blocks until check-in, at the chain's ~10 minute
// block cadence: 1008 blocks ≈ 7 days, 432 blocks ≈ 3 days. These are policy
// constants mirrored from the contract, not derived values.
const (
	FullRefundThreshold = 1008
	HalfRefundThreshold = 432
)

// ActionSet is the set of actions currently legal for a booking, plus the
// refund economics a cancellation would apply right now.
type ActionSet struct {
	CanReleasePayment bool   `json:"can_release_payment"`
	CanCancel         bool   `json:"can_cancel"`
	RefundPercentage  uint64 `json:"refund_percentage"`
	RefundAmount      uint64 `json:"refund_amount"`
}

// CanReleasePayment reports whether the escrow can be released to the host:
// the booking is still CONFIRMED, check-in height has been reached, and
// funds are still held.
func CanReleasePayment(b *models.Booking, currentHeight uint64) bool {
	return b.Status == models.BookingConfirmed &&
		currentHeight >= b.CheckInHeight &&
		b.EscrowedAmount > 0
}

// CanCancel reports whether the guest can still cancel: the booking is still
// CONFIRMED, check-in height has not been reached, and funds are still held.
// Disjoint with CanReleasePayment on the height predicate.
func CanCancel(b *models.Booking, currentHeight uint64) bool {
	return b.Status == models.BookingConfirmed &&
		currentHeight < b.CheckInHeight &&
		b.EscrowedAmount > 0
}

// RefundPercentage maps blocks-until-check-in to the time-decayed refund
// tier. Negative values (check-in already passed) fall through to zero.
func RefundPercentage(blocksUntilCheckIn int64) uint64 {
	switch {
	case blocksUntilCheckIn >= FullRefundThreshold:
		return 100
	case blocksUntilCheckIn >= HalfRefundThreshold:
		return 50
	default:
		return 0
	}
}

// RefundAmount computes the refund in the same micro-unit fixed point as the
// booking's total. Integer math only; display conversion happens elsewhere.
func RefundAmount(totalAmount uint64, refundPercentage uint64) uint64 {
	return totalAmount * refundPercentage / 100
}

// BlocksUntilCheckIn is the signed gap between check-in and the current
// height.
func BlocksUntilCheckIn(b *models.Booking, currentHeight uint64) int64 {
	return int64(b.CheckInHeight) - int64(currentHeight)
}

// Evaluate computes the full action set for a booking at the given height.
func Evaluate(b *models.Booking, currentHeight uint64) ActionSet {
	pct := RefundPercentage(BlocksUntilCheckIn(b, currentHeight))
	return ActionSet{
		CanReleasePayment: CanReleasePayment(b, currentHeight),
		CanCancel:         CanCancel(b, currentHeight),
		RefundPercentage:  pct,
		RefundAmount:      RefundAmount(b.TotalAmount, pct),
	}
}
