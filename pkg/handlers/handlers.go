// Package handlers implements the coordinator's HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/staynest/booking-coordinator/pkg/api"
	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/coordinator"
	"github.com/staynest/booking-coordinator/pkg/mapping"
	"github.com/staynest/booking-coordinator/pkg/metadata"
	"github.com/staynest/booking-coordinator/pkg/middleware"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/tx"
)

// Handler holds the API's dependencies.
type Handler struct {
	Coordinator *coordinator.Coordinator
	Meta        *metadata.Client // optional; nil disables enrichment
	Log         *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(c *coordinator.Coordinator, meta *metadata.Client, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Coordinator: c, Meta: meta, Log: log}
}

// Routes builds the coordinator's router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(h.Log))

	r.Get("/properties", h.ListProperties)
	r.Get("/properties/{id}", h.GetProperty)
	r.Post("/properties", h.CreateListing)

	r.Get("/bookings/{id}", h.GetBooking)
	r.Get("/bookings/{id}/actions", h.GetActions)
	r.Post("/bookings", h.CreateBooking)
	r.Post("/bookings/{id}/release", h.ReleasePayment)
	r.Post("/bookings/{id}/cancel", h.CancelBooking)

	r.Post("/reviews", h.CreateReview)

	r.Get("/disputes/{id}", h.GetDispute)
	r.Post("/disputes", h.CreateDispute)
	r.Post("/disputes/{id}/resolve", h.ResolveDispute)

	r.Get("/users/{addr}/bookings", h.GetUserBookings)
	r.Get("/users/{addr}/stats", h.GetUserStats)

	r.Get("/pending", h.ListPending)
	r.Delete("/pending/{txid}", h.DismissPending)

	return r
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// respondError maps domain errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error, action string) {
	var rateLimited *chain.RateLimitError
	switch {
	case errors.Is(err, chain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, tx.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &rateLimited):
		http.Error(w, "Ledger endpoint is rate limiting, try again later", http.StatusServiceUnavailable)
	default:
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusInternalServerError)
	}
}

// ListProperties returns all active listings, enriched with their off-chain
// documents when a metadata client is configured. Entities whose documents
// cannot be resolved are filtered out, not errors.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counter, err := h.Coordinator.Chain.GetPropertyCounter(ctx)
	if err != nil {
		respondError(w, err, "list properties")
		return
	}

	// The counter holds the next id to assign, so existing ids stop below it.
	properties := make([]*models.Property, 0, counter)
	for id := uint64(1); id < counter; id++ {
		property, err := h.Coordinator.Chain.GetProperty(ctx, id)
		if errors.Is(err, chain.ErrNotFound) {
			continue
		}
		if err != nil {
			respondError(w, err, "list properties")
			return
		}
		if !property.Active {
			continue
		}
		properties = append(properties, property)
	}

	out := make([]*api.Property, 0, len(properties))
	if h.Meta != nil {
		enriched := h.Meta.EnrichProperties(ctx, properties)
		for i := range enriched {
			out = append(out, mapping.ToApiEnrichedProperty(&enriched[i]))
		}
	} else {
		for _, property := range properties {
			out = append(out, mapping.ToApiProperty(property))
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// GetProperty returns a single listing.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid property id", http.StatusBadRequest)
		return
	}
	property, err := h.Coordinator.Chain.GetProperty(r.Context(), id)
	if err != nil {
		respondError(w, err, "retrieve property")
		return
	}
	respondJSON(w, http.StatusOK, mapping.ToApiProperty(property))
}

// CreateListing submits a list-property transaction.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req api.NewListing
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	result, err := h.Coordinator.SubmitListing(r.Context(), req.Owner, req.PricePerNight, req.LocationTag, req.MetadataRef)
	if err != nil {
		respondError(w, err, "submit listing")
		return
	}
	respondJSON(w, http.StatusAccepted, mapping.ToApiSubmitResult(result))
}

// GetBooking returns a single booking.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	booking, err := h.Coordinator.Chain.GetBooking(r.Context(), id)
	if err != nil {
		respondError(w, err, "retrieve booking")
		return
	}
	respondJSON(w, http.StatusOK, mapping.ToApiBooking(booking))
}

// GetActions evaluates the legal lifecycle actions for a booking at the
// current chain height.
func (h *Handler) GetActions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	actions, err := h.Coordinator.Actions(r.Context(), id)
	if err != nil {
		respondError(w, err, "evaluate actions")
		return
	}
	respondJSON(w, http.StatusOK, mapping.ToApiActions(actions))
}

// CreateBooking submits a book-property transaction.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req api.NewBooking
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	result, err := h.Coordinator.SubmitBooking(r.Context(), req.Guest, req.PropertyID, req.CheckInHeight, req.CheckOutHeight)
	if err != nil {
		respondError(w, err, "submit booking")
		return
	}
	respondJSON(w, http.StatusAccepted, mapping.ToApiSubmitResult(result))
}

// ReleasePayment submits a release-payment transaction.
func (h *Handler) ReleasePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	result, err := h.Coordinator.ReleasePayment(r.Context(), id)
	if err != nil {
		respondError(w, err, "release payment")
		return
	}
	respondJSON(w, http.StatusAccepted, mapping.ToApiSubmitResult(result))
}

// CancelBooking submits a cancel-booking transaction.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	result, err := h.Coordinator.CancelBooking(r.Context(), id)
	if err != nil {
		respondError(w, err, "cancel booking")
		return
	}
	respondJSON(w, http.StatusAccepted, mapping.ToApiSubmitResult(result))
}

// CreateReview submits a submit-review transaction.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req api.NewReview
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	result, err := h.Coordinator.SubmitReview(r.Context(), req.BookingID, req.Rating, req.Comment)
	if err != nil {
		respondError(w, err, "submit review")
		return
	}
	respondJSON(w, http.StatusAccepted, mapping.ToApiSubmitResult(result))
}

// GetDispute returns the dispute attached to a booking.
func (h *Handler) GetDispute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	dispute, err := h.Coordinator.Chain.GetDispute(r.Context(), id)
	if err != nil {
		respondError(w, err, "retrieve dispute")
		return
	}
	respondJSON(w, http.StatusOK, mapping.ToApiDispute(dispute))
}

// CreateDispute submits a raise-dispute transaction.
func (h *Handler) CreateDispute(w http.ResponseWriter, r *http.Request) {
	var req api.NewDispute
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	result, err := h.Coordinator.RaiseDispute(r.Context(), req.BookingID, req.Reason, req.Evidence)
	if err != nil {
		respondError(w, err, "raise dispute")
		return
	}
	respondJSON(w, http.StatusAccepted, mapping.ToApiSubmitResult(result))
}

// ResolveDispute submits a resolve-dispute transaction. The contract
// enforces that only the platform resolver may call it.
func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	var req api.DisputeResolution
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	result, err := h.Coordinator.ResolveDispute(r.Context(), id, req.Resolution, req.RefundPercentage)
	if err != nil {
		respondError(w, err, "resolve dispute")
		return
	}
	respondJSON(w, http.StatusAccepted, mapping.ToApiSubmitResult(result))
}

// GetUserBookings returns the merged pending + authoritative booking list
// for a guest.
func (h *Handler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	guest := chi.URLParam(r, "addr")
	views, err := h.Coordinator.MyBookings(r.Context(), guest)
	if err != nil {
		respondError(w, err, "list bookings")
		return
	}
	respondJSON(w, http.StatusOK, mapping.ToApiBookingList(views))
}

// GetUserStats returns a user's aggregate reputation record.
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "addr")
	stats, err := h.Coordinator.Chain.GetUserStats(r.Context(), addr)
	if err != nil {
		respondError(w, err, "retrieve user stats")
		return
	}
	respondJSON(w, http.StatusOK, mapping.ToApiUserStats(stats))
}

// ListPending returns the pending-operation log.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Coordinator.ListPending(r.Context())
	if err != nil {
		respondError(w, err, "list pending operations")
		return
	}
	out := make([]*api.PendingOperation, 0, len(pending))
	for i := range pending {
		out = append(out, mapping.ToApiPendingOperation(&pending[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

// DismissPending removes a pending operation at the user's request.
func (h *Handler) DismissPending(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txid")
	if txID == "" {
		http.Error(w, "Missing transaction id", http.StatusBadRequest)
		return
	}
	if err := h.Coordinator.DismissPending(r.Context(), txID); err != nil {
		respondError(w, err, "dismiss pending operation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
