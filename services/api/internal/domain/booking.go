package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusUsed      BookingStatus = "used"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a user's reservation of N units of one stock.
type Booking struct {
	ID      string
	StockID string
	UserID  string
	// Quantity is 1, or up to 2 for duo offers.
	Quantity int
	// Amount is the unit price frozen at booking time; later price
	// changes on the stock never touch it.
	Amount decimal.Decimal
	// Token is the redemption code shown to the offerer at the venue.
	Token       string
	Status      BookingStatus
	CreatedAt   time.Time
	UsedAt      *time.Time
	CancelledAt *time.Time
}

// Total is the frozen unit amount times the booked quantity.
func (b Booking) Total() decimal.Decimal {
	return b.Amount.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

// IsLive reports whether the booking still counts toward stock
// capacity and expense ceilings.
func (b Booking) IsLive() bool {
	return b.Status != BookingStatusCancelled
}
