package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/culturepass/booking-api/services/api/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidBookingLimit  = "invalid_booking_limit_at"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

// errorResponse carries the source field of the failing rule next to
// the code, so API clients can attach the message to a form field.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeFieldError(w, status, code, "", msg)
}

func writeFieldError(w http.ResponseWriter, status int, code, field, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
		Field: field,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

type domainErrorMapping struct {
	err    error
	status int
	code   string
	field  string
}

var domainErrors = []domainErrorMapping{
	{domain.ErrStockNotFound, http.StatusNotFound, "stock_not_found", "stockId"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found", "userId"},
	{domain.ErrOfferNotFound, http.StatusNotFound, "offer_not_found", "offerId"},
	{domain.ErrBookingNotFound, http.StatusNotFound, "booking_not_found", "bookingId"},
	{domain.ErrOfferAlreadyBooked, http.StatusBadRequest, "offer_already_booked", "offerId"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity", "quantity"},
	{domain.ErrCannotBookFreeOffers, http.StatusBadRequest, "cannot_book_free_offers", "cannotBookFreeOffers"},
	{domain.ErrStockNotBookable, http.StatusBadRequest, "stock_not_bookable", "stock"},
	{domain.ErrExpenseLimitReached, http.StatusBadRequest, "expense_limit_reached", "global"},
	{domain.ErrPhysicalExpenseLimitReached, http.StatusBadRequest, "physical_expense_limit_reached", "physical"},
	{domain.ErrDigitalExpenseLimitReached, http.StatusBadRequest, "digital_expense_limit_reached", "digital"},
	{domain.ErrBookingAlreadyCancelled, http.StatusConflict, "booking_already_cancelled", "booking"},
	{domain.ErrBookingAlreadyUsed, http.StatusConflict, "booking_already_used", "booking"},
	{domain.ErrEmailRequired, http.StatusBadRequest, "email_required", "email"},
	{domain.ErrEmailAlreadyUsed, http.StatusConflict, "email_already_used", "email"},
	{domain.ErrOfferNameRequired, http.StatusBadRequest, "offer_name_required", "name"},
	{domain.ErrInvalidOfferKind, http.StatusBadRequest, "invalid_offer_kind", "kind"},
	{domain.ErrInvalidPrice, http.StatusBadRequest, "invalid_price", "price"},
	{domain.ErrInvalidCapacity, http.StatusBadRequest, "invalid_capacity", "quantity"},
	{domain.ErrInvalidID, http.StatusBadRequest, "invalid_id", "id"},
}

// writeDomainError maps a service error to its HTTP shape; unknown
// errors become an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			writeFieldError(w, m.status, m.code, m.field, m.err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
