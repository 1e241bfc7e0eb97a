package models

import (
	"time"
)

// BookingStatus defines the possible on-chain states of a booking.
// The escrow contract only moves a booking forward: CONFIRMED is the initial
// state and COMPLETED / CANCELLED are terminal.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// DisputeStatus defines the possible on-chain states of a dispute.
type DisputeStatus string

const (
	DisputePending  DisputeStatus = "PENDING"
	DisputeResolved DisputeStatus = "RESOLVED"
	DisputeRejected DisputeStatus = "REJECTED"
)

// Property is the on-chain listing record. The coordinator only reads it;
// identity is the sequential id the contract assigns at creation.
type Property struct {
	ID              uint64 `json:"id"`
	Owner           string `json:"owner"`
	PricePerNight   uint64 `json:"price_per_night"`
	LocationTag     uint64 `json:"location_tag"`
	MetadataRef     string `json:"metadata_ref"`
	Active          bool   `json:"active"`
	CreatedAtHeight uint64 `json:"created_at_height"`
}

// Booking is the on-chain escrow record for a stay.
// Invariant at creation: TotalAmount = PlatformFee + HostPayout.
// EscrowedAmount drops to zero exactly when Status leaves CONFIRMED.
type Booking struct {
	ID              uint64        `json:"id"`
	PropertyID      uint64        `json:"property_id"`
	Guest           string        `json:"guest"`
	Host            string        `json:"host"`
	CheckInHeight   uint64        `json:"check_in_height"`
	CheckOutHeight  uint64        `json:"check_out_height"`
	TotalAmount     uint64        `json:"total_amount"`
	PlatformFee     uint64        `json:"platform_fee"`
	HostPayout      uint64        `json:"host_payout"`
	EscrowedAmount  uint64        `json:"escrowed_amount"`
	Status          BookingStatus `json:"status"`
	CreatedAtHeight uint64        `json:"created_at_height"`
}

// Dispute is the on-chain record of a raised dispute. It is created only by
// the contract in response to a raise-dispute transaction and resolved at
// most once by the resolver role.
type Dispute struct {
	BookingID        uint64        `json:"booking_id"`
	RaisedBy         string        `json:"raised_by"`
	Reason           string        `json:"reason"`
	Evidence         string        `json:"evidence"`
	Status           DisputeStatus `json:"status"`
	Resolution       string        `json:"resolution"`
	RefundPercentage uint64        `json:"refund_percentage"`
	CreatedAtHeight  uint64        `json:"created_at_height"`
	ResolvedAtHeight uint64        `json:"resolved_at_height"`
}

// UserStats is the contract's aggregate reputation record for an address.
type UserStats struct {
	Address         string `json:"address"`
	BookingsAsGuest uint64 `json:"bookings_as_guest"`
	BookingsAsHost  uint64 `json:"bookings_as_host"`
	ReviewCount     uint64 `json:"review_count"`
	RatingSum       uint64 `json:"rating_sum"`
}

// OperationKind identifies what a transaction does. Only bookings and
// listings get an optimistic pending record while they confirm; the
// settlement kinds label lifecycle events for connected clients.
type OperationKind string

const (
	KindBooking    OperationKind = "BOOKING"
	KindListing    OperationKind = "LISTING"
	KindRelease    OperationKind = "RELEASE"
	KindCancel     OperationKind = "CANCEL"
	KindReview     OperationKind = "REVIEW"
	KindDispute    OperationKind = "DISPUTE"
	KindResolution OperationKind = "RESOLUTION"
)

// PendingStatus is the client-local status of a pending operation. There is
// a single live value; terminal operations are removed, not transitioned.
// Entries awaiting id verification stay PENDING with Provisional set, so
// status-keyed listings and the reconciler always see them.
type PendingStatus string

const (
	PendingStatusPending PendingStatus = "PENDING"
)

// PendingOperation is the client-local, persisted record of a transaction
// that has been broadcast but not yet confirmed by the ledger. It is owned
// exclusively by the pending-operation store; terminal outcomes remove it.
// It includes dynamodbav tags for marshalling.
type PendingOperation struct {
	TxID           string        `json:"tx_id" dynamodbav:"tx_id"`
	OpID           string        `json:"op_id" dynamodbav:"op_id"`
	Kind           OperationKind `json:"kind" dynamodbav:"kind"`
	PropertyID     uint64        `json:"property_id" dynamodbav:"property_id"`
	Guest          string        `json:"guest" dynamodbav:"guest"`
	CheckInHeight  uint64        `json:"check_in_height" dynamodbav:"check_in_height"`
	CheckOutHeight uint64        `json:"check_out_height" dynamodbav:"check_out_height"`
	TotalAmount    uint64        `json:"total_amount" dynamodbav:"total_amount"`

	// ExpectedID is the sequence-counter value read before submission: the id
	// the contract will assign if no other writer takes it first. Provisional
	// stays true until a fresh ledger read confirms the entity under that id.
	ExpectedID  uint64 `json:"expected_id" dynamodbav:"expected_id"`
	Provisional bool   `json:"provisional" dynamodbav:"provisional"`

	Status      PendingStatus `json:"status" dynamodbav:"status"`
	SubmittedAt time.Time     `json:"submitted_at" dynamodbav:"submitted_at"`
	TTL         int64         `json:"-" dynamodbav:"ttl,omitempty"`
}

// AmountsConsistent reports whether the booking's escrow split adds up.
func (b *Booking) AmountsConsistent() bool {
	return b.TotalAmount == b.PlatformFee+b.HostPayout
}

// Matches reports whether an authoritative booking satisfies the same
// (property, guest, check-in) tuple as this pending operation. Exact id
// matching is not possible for not-yet-confirmed entries, so this tuple is
// the merge key.
func (op *PendingOperation) Matches(b *Booking) bool {
	return op.Kind == KindBooking &&
		op.PropertyID == b.PropertyID &&
		op.Guest == b.Guest &&
		op.CheckInHeight == b.CheckInHeight
}
