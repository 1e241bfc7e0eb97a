// Package api holds the request and response shapes of the coordinator's
// HTTP surface. They are decoupled from the domain models so the wire format
// can evolve independently.
package api

// NewBooking is the request body for booking a stay.
type NewBooking struct {
	Guest          string `json:"guest"`
	PropertyID     uint64 `json:"property_id"`
	CheckInHeight  uint64 `json:"check_in_height"`
	CheckOutHeight uint64 `json:"check_out_height"`
}

// NewListing is the request body for listing a property.
type NewListing struct {
	Owner         string `json:"owner"`
	PricePerNight uint64 `json:"price_per_night"`
	LocationTag   uint64 `json:"location_tag"`
	MetadataRef   string `json:"metadata_ref"`
}

// NewReview is the request body for reviewing a completed stay.
type NewReview struct {
	BookingID uint64 `json:"booking_id"`
	Rating    uint64 `json:"rating"`
	Comment   string `json:"comment"`
}

// NewDispute is the request body for raising a dispute.
type NewDispute struct {
	BookingID uint64 `json:"booking_id"`
	Reason    string `json:"reason"`
	Evidence  string `json:"evidence"`
}

// DisputeResolution is the request body for resolving a dispute.
type DisputeResolution struct {
	Resolution       string `json:"resolution"`
	RefundPercentage uint64 `json:"refund_percentage"`
}

// SubmitResult reports the immediate outcome of a submit call. Confirmation
// arrives later, via polling or a push message.
type SubmitResult struct {
	Cancelled  bool   `json:"cancelled"`
	TxID       string `json:"tx_id,omitempty"`
	ExpectedID uint64 `json:"expected_id,omitempty"`
}

// Property is the API shape of a listing, optionally enriched with its
// off-chain document.
type Property struct {
	ID            uint64            `json:"id"`
	Owner         string            `json:"owner"`
	PricePerNight uint64            `json:"price_per_night"`
	LocationTag   uint64            `json:"location_tag"`
	MetadataRef   string            `json:"metadata_ref"`
	Active        bool              `json:"active"`
	Metadata      *PropertyMetadata `json:"metadata,omitempty"`
}

// PropertyMetadata mirrors the resolved off-chain document.
type PropertyMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Amenities   []string `json:"amenities,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// Booking is the API shape of an on-chain booking.
type Booking struct {
	ID             uint64 `json:"id"`
	PropertyID     uint64 `json:"property_id"`
	Guest          string `json:"guest"`
	Host           string `json:"host"`
	CheckInHeight  uint64 `json:"check_in_height"`
	CheckOutHeight uint64 `json:"check_out_height"`
	TotalAmount    uint64 `json:"total_amount"`
	EscrowedAmount uint64 `json:"escrowed_amount"`
	Status         string `json:"status"`
}

// PendingOperation is the API shape of an in-flight operation.
type PendingOperation struct {
	TxID           string `json:"tx_id"`
	Kind           string `json:"kind"`
	PropertyID     uint64 `json:"property_id"`
	Guest          string `json:"guest"`
	CheckInHeight  uint64 `json:"check_in_height"`
	CheckOutHeight uint64 `json:"check_out_height"`
	TotalAmount    uint64 `json:"total_amount"`
	ExpectedID     uint64 `json:"expected_id"`
	Provisional    bool   `json:"provisional"`
	SubmittedAt    string `json:"submitted_at"`
}

// BookingListEntry is one row of the merged booking list: exactly one of
// Pending or Booking is set.
type BookingListEntry struct {
	Pending *PendingOperation `json:"pending,omitempty"`
	Booking *Booking          `json:"booking,omitempty"`
}

// Actions reports which lifecycle actions are currently legal for a booking.
type Actions struct {
	CanReleasePayment bool   `json:"can_release_payment"`
	CanCancel         bool   `json:"can_cancel"`
	RefundPercentage  uint64 `json:"refund_percentage"`
	RefundAmount      uint64 `json:"refund_amount"`
}

// Dispute is the API shape of an on-chain dispute.
type Dispute struct {
	BookingID        uint64 `json:"booking_id"`
	RaisedBy         string `json:"raised_by"`
	Reason           string `json:"reason"`
	Evidence         string `json:"evidence"`
	Status           string `json:"status"`
	Resolution       string `json:"resolution,omitempty"`
	RefundPercentage uint64 `json:"refund_percentage"`
}

// UserStats is the API shape of a user's aggregate reputation record.
// AverageRating is precomputed from the on-chain sum for display.
type UserStats struct {
	Address         string  `json:"address"`
	BookingsAsGuest uint64  `json:"bookings_as_guest"`
	BookingsAsHost  uint64  `json:"bookings_as_host"`
	ReviewCount     uint64  `json:"review_count"`
	AverageRating   float64 `json:"average_rating"`
}
