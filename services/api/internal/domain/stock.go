package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is one bookable inventory unit of an offer (a date/price for an
// event, or the generic availability of a good).
type Stock struct {
	ID      string
	OfferID string
	Price   decimal.Decimal
	// Quantity is the total capacity; nil means unlimited.
	Quantity *int
	// BookingLimitAt is the instant after which the stock can no longer
	// be booked; nil means no limit.
	BookingLimitAt *time.Time
	SoftDeleted    bool
	CreatedAt      time.Time

	// BookedQuantity is derived: the sum of quantities of live (non
	// cancelled) bookings against this stock. Repositories fill it; it
	// is never stored as a column.
	BookedQuantity int
}

// Remaining returns the capacity left on the stock, or -1 when
// unlimited.
func (s Stock) Remaining() int {
	if s.Quantity == nil {
		return -1
	}
	return *s.Quantity - s.BookedQuantity
}

// IsBookable is the display-level predicate: not soft-deleted, booking
// limit not passed, and at least one unit left (or unlimited).
func (s Stock) IsBookable(now time.Time) bool {
	if s.SoftDeleted {
		return false
	}
	if s.BookingLimitAt != nil && !s.BookingLimitAt.After(now) {
		return false
	}
	return s.Quantity == nil || s.Remaining() > 0
}
