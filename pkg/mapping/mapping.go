// Package mapping converts between domain models and API types.
package mapping

import (
	"time"

	"github.com/staynest/booking-coordinator/pkg/api"
	"github.com/staynest/booking-coordinator/pkg/coordinator"
	"github.com/staynest/booking-coordinator/pkg/metadata"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/policy"
)

// ToApiProperty converts a domain property without enrichment.
func ToApiProperty(p *models.Property) *api.Property {
	return &api.Property{
		ID:            p.ID,
		Owner:         p.Owner,
		PricePerNight: p.PricePerNight,
		LocationTag:   p.LocationTag,
		MetadataRef:   p.MetadataRef,
		Active:        p.Active,
	}
}

// ToApiEnrichedProperty converts a property together with its resolved
// off-chain document.
func ToApiEnrichedProperty(p *metadata.EnrichedProperty) *api.Property {
	out := ToApiProperty(&p.Property)
	if p.Metadata != nil {
		out.Metadata = &api.PropertyMetadata{
			Name:        p.Metadata.Name,
			Description: p.Metadata.Description,
			Location:    p.Metadata.Location,
			Amenities:   p.Metadata.Amenities,
			Images:      p.Metadata.Images,
		}
	}
	return out
}

// ToApiBooking converts a domain booking.
func ToApiBooking(b *models.Booking) *api.Booking {
	return &api.Booking{
		ID:             b.ID,
		PropertyID:     b.PropertyID,
		Guest:          b.Guest,
		Host:           b.Host,
		CheckInHeight:  b.CheckInHeight,
		CheckOutHeight: b.CheckOutHeight,
		TotalAmount:    b.TotalAmount,
		EscrowedAmount: b.EscrowedAmount,
		Status:         string(b.Status),
	}
}

// ToApiPendingOperation converts an in-flight operation.
func ToApiPendingOperation(op *models.PendingOperation) *api.PendingOperation {
	return &api.PendingOperation{
		TxID:           op.TxID,
		Kind:           string(op.Kind),
		PropertyID:     op.PropertyID,
		Guest:          op.Guest,
		CheckInHeight:  op.CheckInHeight,
		CheckOutHeight: op.CheckOutHeight,
		TotalAmount:    op.TotalAmount,
		ExpectedID:     op.ExpectedID,
		Provisional:    op.Provisional,
		SubmittedAt:    op.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// ToApiBookingList converts a merged booking view.
func ToApiBookingList(views []coordinator.BookingView) []api.BookingListEntry {
	entries := make([]api.BookingListEntry, 0, len(views))
	for i := range views {
		entry := api.BookingListEntry{}
		if views[i].Pending != nil {
			entry.Pending = ToApiPendingOperation(views[i].Pending)
		}
		if views[i].Booking != nil {
			entry.Booking = ToApiBooking(views[i].Booking)
		}
		entries = append(entries, entry)
	}
	return entries
}

// ToApiSubmitResult converts a submit outcome.
func ToApiSubmitResult(r *coordinator.SubmitResult) *api.SubmitResult {
	return &api.SubmitResult{
		Cancelled:  r.Cancelled,
		TxID:       r.TxID,
		ExpectedID: r.ExpectedID,
	}
}

// ToApiActions converts an evaluated action set.
func ToApiActions(a *policy.ActionSet) *api.Actions {
	return &api.Actions{
		CanReleasePayment: a.CanReleasePayment,
		CanCancel:         a.CanCancel,
		RefundPercentage:  a.RefundPercentage,
		RefundAmount:      a.RefundAmount,
	}
}

// ToApiDispute converts a domain dispute.
func ToApiDispute(d *models.Dispute) *api.Dispute {
	return &api.Dispute{
		BookingID:        d.BookingID,
		RaisedBy:         d.RaisedBy,
		Reason:           d.Reason,
		Evidence:         d.Evidence,
		Status:           string(d.Status),
		Resolution:       d.Resolution,
		RefundPercentage: d.RefundPercentage,
	}
}

// ToApiUserStats converts a reputation record, deriving the display rating
// from the on-chain sum.
func ToApiUserStats(s *models.UserStats) *api.UserStats {
	out := &api.UserStats{
		Address:         s.Address,
		BookingsAsGuest: s.BookingsAsGuest,
		BookingsAsHost:  s.BookingsAsHost,
		ReviewCount:     s.ReviewCount,
	}
	if s.ReviewCount > 0 {
		out.AverageRating = float64(s.RatingSum) / float64(s.ReviewCount)
	}
	return out
}
