package app

import (
	"context"
	"log"

	"github.com/culturepass/booking-api/services/api/internal/domain"
)

// Notifier dispatches post-booking messages. Implementations must be
// safe to call after the booking transaction has committed; errors are
// logged by the caller and never fail the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, user domain.User, booking domain.Booking, offer domain.Offer) error
	OffererRecap(ctx context.Context, booking domain.Booking, offer domain.Offer) error
}

// LogNotifier writes notifications to the service log. It stands in
// for the real mail dispatcher in development and tests.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BookingConfirmed(_ context.Context, user domain.User, booking domain.Booking, offer domain.Offer) error {
	n.logger.Printf(
		"notify booking confirmed user=%s offer=%q token=%s quantity=%d total=%s",
		user.Email, offer.Name, booking.Token, booking.Quantity, booking.Total(),
	)
	return nil
}

func (n *LogNotifier) OffererRecap(_ context.Context, booking domain.Booking, offer domain.Offer) error {
	n.logger.Printf(
		"notify offerer recap offer=%q booking=%s quantity=%d",
		offer.Name, booking.ID, booking.Quantity,
	)
	return nil
}
