package tx

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxCommentLength bounds review comments, matching the contract's
	// string field size.
	MaxCommentLength = 500
	// MaxReasonLength bounds dispute reasons and evidence references.
	MaxReasonLength = 500
)

// ErrInvalidArgument is wrapped by every builder validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// BookStay builds the book-property call.
func BookStay(propertyID, checkInHeight, checkOutHeight uint64) (*Payload, error) {
	if propertyID == 0 {
		return nil, invalidf("property id is required")
	}
	if checkInHeight == 0 || checkOutHeight == 0 {
		return nil, invalidf("check-in and check-out heights are required")
	}
	if checkInHeight >= checkOutHeight {
		return nil, invalidf("check-in height %d must be before check-out height %d", checkInHeight, checkOutHeight)
	}
	return &Payload{
		Function: "book-property",
		Args:     []Arg{Uint(propertyID), Uint(checkInHeight), Uint(checkOutHeight)},
	}, nil
}

// ReleasePayment builds the release-payment call for a booking.
func ReleasePayment(bookingID uint64) (*Payload, error) {
	if bookingID == 0 {
		return nil, invalidf("booking id is required")
	}
	return &Payload{
		Function: "release-payment",
		Args:     []Arg{Uint(bookingID)},
	}, nil
}

// CancelBooking builds the cancel-booking call. The refund split is computed
// on chain; the client only names the booking.
func CancelBooking(bookingID uint64) (*Payload, error) {
	if bookingID == 0 {
		return nil, invalidf("booking id is required")
	}
	return &Payload{
		Function: "cancel-booking",
		Args:     []Arg{Uint(bookingID)},
	}, nil
}

// ListProperty builds the list-property call.
func ListProperty(pricePerNight, locationTag uint64, metadataRef string) (*Payload, error) {
	if pricePerNight == 0 {
		return nil, invalidf("price per night must be positive")
	}
	if strings.TrimSpace(metadataRef) == "" {
		return nil, invalidf("metadata reference is required")
	}
	return &Payload{
		Function: "list-property",
		Args:     []Arg{Uint(pricePerNight), Uint(locationTag), Str(metadataRef)},
	}, nil
}

// SubmitReview builds the submit-review call.
func SubmitReview(bookingID uint64, rating uint64, comment string) (*Payload, error) {
	if bookingID == 0 {
		return nil, invalidf("booking id is required")
	}
	if rating < 1 || rating > 5 {
		return nil, invalidf("rating %d must be between 1 and 5", rating)
	}
	if len(comment) > MaxCommentLength {
		return nil, invalidf("comment length %d exceeds %d characters", len(comment), MaxCommentLength)
	}
	return &Payload{
		Function: "submit-review",
		Args:     []Arg{Uint(bookingID), Uint(rating), Str(comment)},
	}, nil
}

// RaiseDispute builds the raise-dispute call.
func RaiseDispute(bookingID uint64, reason, evidence string) (*Payload, error) {
	if bookingID == 0 {
		return nil, invalidf("booking id is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, invalidf("a dispute reason is required")
	}
	if len(reason) > MaxReasonLength {
		return nil, invalidf("reason length %d exceeds %d characters", len(reason), MaxReasonLength)
	}
	if len(evidence) > MaxReasonLength {
		return nil, invalidf("evidence length %d exceeds %d characters", len(evidence), MaxReasonLength)
	}
	return &Payload{
		Function: "raise-dispute",
		Args:     []Arg{Uint(bookingID), Str(reason), Str(evidence)},
	}, nil
}

// ResolveDispute builds the resolve-dispute call. The chain enforces the
// resolver role and at-most-once resolution; the builder only checks shape.
func ResolveDispute(bookingID uint64, resolution string, refundPercentage uint64) (*Payload, error) {
	if bookingID == 0 {
		return nil, invalidf("booking id is required")
	}
	if strings.TrimSpace(resolution) == "" {
		return nil, invalidf("a resolution note is required")
	}
	if refundPercentage > 100 {
		return nil, invalidf("refund percentage %d must be between 0 and 100", refundPercentage)
	}
	return &Payload{
		Function: "resolve-dispute",
		Args:     []Arg{Uint(bookingID), Str(resolution), Uint(refundPercentage)},
	}, nil
}
