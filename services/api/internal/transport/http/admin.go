package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/culturepass/booking-api/services/api/internal/app"
	"github.com/culturepass/booking-api/services/api/internal/domain"
)

// AdminUserService is the minimal interface for beneficiary creation.
type AdminUserService interface {
	CreateUser(ctx context.Context, in app.CreateUserInput) (domain.User, error)
}

// AdminOfferService is the minimal interface for offer endpoints.
type AdminOfferService interface {
	CreateOffer(ctx context.Context, in app.CreateOfferInput) (domain.Offer, error)
	ListOffers(ctx context.Context) ([]domain.Offer, error)
}

// AdminStockService is the minimal interface for stock endpoints.
type AdminStockService interface {
	CreateStock(ctx context.Context, in app.CreateStockInput) (domain.Stock, error)
	ListStocks(ctx context.Context, offerID string) ([]domain.Stock, error)
	SoftDeleteStock(ctx context.Context, stockID string) error
}

// HandleAdminUsers serves POST /admin/users.
func HandleAdminUsers(svc AdminUserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createUserRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		user, err := svc.CreateUser(r.Context(), app.CreateUserInput{
			Email:             req.Email,
			CanBookFreeOffers: req.CanBookFreeOffers,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(userResponse{
			ID:                user.ID,
			Email:             user.Email,
			CanBookFreeOffers: user.CanBookFreeOffers,
			CreatedAt:         user.CreatedAt,
		})
	}
}

// HandleAdminOffers serves GET and POST /admin/offers.
func HandleAdminOffers(svc AdminOfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			offers, err := svc.ListOffers(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]offerResponse, 0, len(offers))
			for _, o := range offers {
				resp = append(resp, newOfferResponse(o))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createOfferRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			offer, err := svc.CreateOffer(r.Context(), app.CreateOfferInput{
				VenueName: req.VenueName,
				Name:      req.Name,
				Kind:      domain.OfferKind(req.Kind),
				IsDuo:     req.IsDuo,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(newOfferResponse(offer))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminOfferStocks serves GET and POST /admin/offers/{id}/stocks.
func HandleAdminOfferStocks(svc AdminStockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, ok := parseOfferStocksPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			stocks, err := svc.ListStocks(r.Context(), offerID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]stockResponse, 0, len(stocks))
			for _, s := range stocks {
				resp = append(resp, newStockResponse(s))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createStockRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			price, err := decimal.NewFromString(req.Price)
			if err != nil {
				writeFieldError(w, http.StatusBadRequest, "invalid_price", "price", domain.ErrInvalidPrice.Error())
				return
			}

			var limit *time.Time
			if req.BookingLimitAt != "" {
				parsed, err := time.Parse(time.RFC3339, req.BookingLimitAt)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidBookingLimit, "invalid booking_limit_at format")
					return
				}
				limit = &parsed
			}

			stock, err := svc.CreateStock(r.Context(), app.CreateStockInput{
				OfferID:        offerID,
				Price:          price,
				Quantity:       req.Quantity,
				BookingLimitAt: limit,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(newStockResponse(stock))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminStockDelete serves DELETE /admin/stocks/{id} (soft
// delete).
func HandleAdminStockDelete(svc AdminStockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stockID, ok := parseStockPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		if err := svc.SoftDeleteStock(r.Context(), stockID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseOfferStocksPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 {
		return "", false
	}
	if parts[0] != "admin" || parts[1] != "offers" || parts[3] != "stocks" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

func parseStockPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "admin" || parts[1] != "stocks" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type createUserRequest struct {
	Email             string `json:"email"`
	CanBookFreeOffers bool   `json:"can_book_free_offers"`
}

type userResponse struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	CanBookFreeOffers bool      `json:"can_book_free_offers"`
	CreatedAt         time.Time `json:"created_at"`
}

type createOfferRequest struct {
	VenueName string `json:"venue_name"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	IsDuo     bool   `json:"is_duo"`
}

type offerResponse struct {
	ID        string    `json:"id"`
	VenueName string    `json:"venue_name"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	IsDuo     bool      `json:"is_duo"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func newOfferResponse(o domain.Offer) offerResponse {
	return offerResponse{
		ID:        o.ID,
		VenueName: o.VenueName,
		Name:      o.Name,
		Kind:      string(o.Kind),
		IsDuo:     o.IsDuo,
		Active:    o.Active,
		CreatedAt: o.CreatedAt,
	}
}

type createStockRequest struct {
	Price          string `json:"price"`
	Quantity       *int   `json:"quantity"`
	BookingLimitAt string `json:"booking_limit_at"`
}

type stockResponse struct {
	ID             string     `json:"id"`
	OfferID        string     `json:"offer_id"`
	Price          string     `json:"price"`
	Quantity       *int       `json:"quantity"`
	BookedQuantity int        `json:"booked_quantity"`
	BookingLimitAt *time.Time `json:"booking_limit_at,omitempty"`
	SoftDeleted    bool       `json:"soft_deleted"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newStockResponse(s domain.Stock) stockResponse {
	return stockResponse{
		ID:             s.ID,
		OfferID:        s.OfferID,
		Price:          s.Price.String(),
		Quantity:       s.Quantity,
		BookedQuantity: s.BookedQuantity,
		BookingLimitAt: s.BookingLimitAt,
		SoftDeleted:    s.SoftDeleted,
		CreatedAt:      s.CreatedAt,
	}
}
