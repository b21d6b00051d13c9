package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/culturepass/booking-api/services/api/internal/domain"
)

// fakeBookingRepo is an in-memory BookingRepository. Derived values
// (booked quantity, expense lines) are computed from the booking slice
// the same way the SQL layer computes them from live rows.
type fakeBookingRepo struct {
	nextID   int
	users    map[string]domain.User
	offers   map[string]domain.Offer
	stocks   map[string]domain.Stock
	bookings []domain.Booking

	createCalls    int
	createFailures []error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		users:  make(map[string]domain.User),
		offers: make(map[string]domain.Offer),
		stocks: make(map[string]domain.Stock),
	}
}

func (f *fakeBookingRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeBookingRepo) addUser(u domain.User) domain.User {
	u.ID = f.id("user")
	f.users[u.ID] = u
	return u
}

func (f *fakeBookingRepo) addOffer(o domain.Offer) domain.Offer {
	o.ID = f.id("offer")
	o.Active = true
	f.offers[o.ID] = o
	return o
}

func (f *fakeBookingRepo) addStock(offerID string, price decimal.Decimal, quantity *int, limit *time.Time) domain.Stock {
	s := domain.Stock{
		ID:             f.id("stock"),
		OfferID:        offerID,
		Price:          price,
		Quantity:       quantity,
		BookingLimitAt: limit,
	}
	f.stocks[s.ID] = s
	return s
}

func (f *fakeBookingRepo) bookedQuantity(stockID string) int {
	total := 0
	for _, b := range f.bookings {
		if b.StockID == stockID && b.IsLive() {
			total += b.Quantity
		}
	}
	return total
}

func (f *fakeBookingRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeBookingRepo) GetStockForUpdate(_ context.Context, stockID string) (domain.Stock, domain.Offer, error) {
	stock, ok := f.stocks[stockID]
	if !ok {
		return domain.Stock{}, domain.Offer{}, domain.ErrStockNotFound
	}
	stock.BookedQuantity = f.bookedQuantity(stockID)
	offer, ok := f.offers[stock.OfferID]
	if !ok {
		return domain.Stock{}, domain.Offer{}, domain.ErrOfferNotFound
	}
	return stock, offer, nil
}

func (f *fakeBookingRepo) GetUser(_ context.Context, userID string) (domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeBookingRepo) HasLiveBookingForOffer(_ context.Context, userID, offerID string) (bool, error) {
	for _, b := range f.bookings {
		if b.UserID != userID || !b.IsLive() {
			continue
		}
		if stock, ok := f.stocks[b.StockID]; ok && stock.OfferID == offerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingRepo) ListExpenseLines(_ context.Context, userID string) ([]domain.ExpenseLine, error) {
	var lines []domain.ExpenseLine
	for _, b := range f.bookings {
		if b.UserID != userID || !b.IsLive() {
			continue
		}
		stock := f.stocks[b.StockID]
		offer := f.offers[stock.OfferID]
		lines = append(lines, domain.ExpenseLine{
			Amount:    b.Amount,
			Quantity:  b.Quantity,
			OfferKind: offer.Kind,
		})
	}
	return lines, nil
}

func (f *fakeBookingRepo) CreateBooking(_ context.Context, booking domain.Booking) error {
	f.createCalls++
	if len(f.createFailures) > 0 {
		err := f.createFailures[0]
		f.createFailures = f.createFailures[1:]
		return err
	}
	for _, existing := range f.bookings {
		if existing.Token == booking.Token {
			return domain.ErrTokenCollision
		}
	}
	f.bookings = append(f.bookings, booking)
	return nil
}

func (f *fakeBookingRepo) GetBookingForUpdate(_ context.Context, bookingID string) (domain.Booking, error) {
	for _, b := range f.bookings {
		if b.ID == bookingID {
			return b, nil
		}
	}
	return domain.Booking{}, domain.ErrBookingNotFound
}

func (f *fakeBookingRepo) GetBookingByTokenForUpdate(_ context.Context, token string) (domain.Booking, error) {
	for _, b := range f.bookings {
		if b.Token == token {
			return b, nil
		}
	}
	return domain.Booking{}, domain.ErrBookingNotFound
}

func (f *fakeBookingRepo) GetBookingDetailsByToken(_ context.Context, token string) (domain.Booking, domain.Offer, error) {
	for _, b := range f.bookings {
		if b.Token == token {
			stock := f.stocks[b.StockID]
			return b, f.offers[stock.OfferID], nil
		}
	}
	return domain.Booking{}, domain.Offer{}, domain.ErrBookingNotFound
}

func (f *fakeBookingRepo) MarkBookingCancelled(_ context.Context, booking domain.Booking) error {
	return f.replace(booking)
}

func (f *fakeBookingRepo) MarkBookingUsed(_ context.Context, booking domain.Booking) error {
	return f.replace(booking)
}

func (f *fakeBookingRepo) replace(booking domain.Booking) error {
	for i, b := range f.bookings {
		if b.ID == booking.ID {
			f.bookings[i] = booking
			return nil
		}
	}
	return domain.ErrBookingNotFound
}
