package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/culturepass/booking-api/services/api/internal/app"
	"github.com/culturepass/booking-api/services/api/internal/domain"
)

// BookingLifecycle is the minimal interface for the post-admission
// booking endpoints.
type BookingLifecycle interface {
	CancelBooking(ctx context.Context, bookingID string) (domain.Booking, error)
	RedeemBooking(ctx context.Context, token string) (domain.Booking, error)
	GetBookingByToken(ctx context.Context, token string) (app.BookingDetails, error)
}

// HandleBookingLifecycle routes the sub-paths under /bookings/:
// POST /bookings/{id}/cancel, and GET/PATCH /bookings/token/{token}.
func HandleBookingLifecycle(svc BookingLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case len(parts) == 3 && parts[0] == "bookings" && parts[1] == "token" && parts[2] != "":
			handleTokenOps(svc, w, r, parts[2])
		case len(parts) == 3 && parts[0] == "bookings" && parts[2] == "cancel" && parts[1] != "":
			handleCancel(svc, w, r, parts[1])
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleCancel(svc BookingLifecycle, w http.ResponseWriter, r *http.Request, bookingID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	booking, err := svc.CancelBooking(r.Context(), bookingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newBookingResponse(booking))
}

func handleTokenOps(svc BookingLifecycle, w http.ResponseWriter, r *http.Request, token string) {
	switch r.Method {
	case http.MethodGet:
		details, err := svc.GetBookingByToken(r.Context(), token)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := bookingDetailsResponse{
			Booking: newBookingResponse(details.Booking),
			Offer: offerSummary{
				ID:        details.Offer.ID,
				VenueName: details.Offer.VenueName,
				Name:      details.Offer.Name,
				Kind:      string(details.Offer.Kind),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	case http.MethodPatch:
		var req redeemRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if !req.Used {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "only marking as used is supported")
			return
		}

		booking, err := svc.RedeemBooking(r.Context(), token)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newBookingResponse(booking))
	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}

type redeemRequest struct {
	Used bool `json:"used"`
}

type offerSummary struct {
	ID        string `json:"id"`
	VenueName string `json:"venue_name"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
}

type bookingDetailsResponse struct {
	Booking bookingResponse `json:"booking"`
	Offer   offerSummary    `json:"offer"`
}
