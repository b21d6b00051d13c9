package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/culturepass/booking-api/services/api/internal/app"
	"github.com/culturepass/booking-api/services/api/internal/domain"
)

// BookingCreator is the minimal interface needed to create a booking.
type BookingCreator interface {
	BookOffer(ctx context.Context, in app.BookOfferInput) (domain.Booking, error)
}

// HandleCreateBooking returns the handler for the booking admission
// endpoint.
func HandleCreateBooking(svc BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createBookingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.StockID == "" || req.UserID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "stock_id and user_id are required")
			return
		}
		if req.Quantity <= 0 {
			writeFieldError(w, http.StatusBadRequest, "invalid_quantity", "quantity", domain.ErrInvalidQuantity.Error())
			return
		}

		booking, err := svc.BookOffer(r.Context(), app.BookOfferInput{
			StockID:  req.StockID,
			UserID:   req.UserID,
			Quantity: req.Quantity,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newBookingResponse(booking))
	}
}

type createBookingRequest struct {
	StockID  string `json:"stock_id"`
	UserID   string `json:"user_id"`
	Quantity int    `json:"quantity"`
}

type bookingResponse struct {
	ID          string     `json:"id"`
	StockID     string     `json:"stock_id"`
	UserID      string     `json:"user_id"`
	Quantity    int        `json:"quantity"`
	Amount      string     `json:"amount"`
	Total       string     `json:"total"`
	Token       string     `json:"token"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func newBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		StockID:     b.StockID,
		UserID:      b.UserID,
		Quantity:    b.Quantity,
		Amount:      b.Amount.String(),
		Total:       b.Total().String(),
		Token:       b.Token,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UsedAt:      b.UsedAt,
		CancelledAt: b.CancelledAt,
	}
}
