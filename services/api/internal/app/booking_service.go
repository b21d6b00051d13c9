package app

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/culturepass/booking-api/services/api/internal/clock"
	"github.com/culturepass/booking-api/services/api/internal/domain"
	"github.com/culturepass/booking-api/services/api/internal/monitoring"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetStockForUpdate locks the stock row, fills its derived
	// BookedQuantity from live bookings, and returns the owning offer.
	GetStockForUpdate(ctx context.Context, stockID string) (domain.Stock, domain.Offer, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
	HasLiveBookingForOffer(ctx context.Context, userID, offerID string) (bool, error)
	ListExpenseLines(ctx context.Context, userID string) ([]domain.ExpenseLine, error)
	CreateBooking(ctx context.Context, booking domain.Booking) error
	GetBookingForUpdate(ctx context.Context, bookingID string) (domain.Booking, error)
	GetBookingByTokenForUpdate(ctx context.Context, token string) (domain.Booking, error)
	GetBookingDetailsByToken(ctx context.Context, token string) (domain.Booking, domain.Offer, error)
	MarkBookingCancelled(ctx context.Context, booking domain.Booking) error
	MarkBookingUsed(ctx context.Context, booking domain.Booking) error
}

type BookingService struct {
	repo     BookingRepository
	clock    clock.Clock
	notifier Notifier
	ceilings domain.Ceilings
	logger   *log.Logger
}

// tokenAttempts bounds transaction retries on a redemption-code
// collision.
const tokenAttempts = 3

func NewBookingService(repo BookingRepository, clk clock.Clock, notifier Notifier, opts ...BookingServiceOption) *BookingService {
	svc := &BookingService{
		repo:     repo,
		clock:    clk,
		notifier: notifier,
		ceilings: domain.DefaultCeilings(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type BookingServiceOption func(*BookingService)

// WithCeilings overrides the default expense ceilings.
func WithCeilings(c domain.Ceilings) BookingServiceOption {
	return func(s *BookingService) {
		s.ceilings = c
	}
}

// WithLogger overrides the logger used for notification failures.
func WithLogger(logger *log.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type BookOfferInput struct {
	StockID  string
	UserID   string
	Quantity int
}

// BookOffer runs the admission checks in order inside one transaction
// holding the stock row lock, and inserts the booking only when every
// rule passes. Nothing is persisted on rejection.
func (s *BookingService) BookOffer(ctx context.Context, in BookOfferInput) (domain.Booking, error) {
	var (
		booking domain.Booking
		user    domain.User
		offer   domain.Offer
	)

	now := s.clock.Now()

	attempt := func() error {
		token, err := newToken()
		if err != nil {
			return err
		}

		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			stock, stockOffer, err := s.repo.GetStockForUpdate(txCtx, in.StockID)
			if err != nil {
				return err
			}
			offer = stockOffer

			user, err = s.repo.GetUser(txCtx, in.UserID)
			if err != nil {
				return err
			}

			alreadyBooked, err := s.repo.HasLiveBookingForOffer(txCtx, in.UserID, offer.ID)
			if err != nil {
				return err
			}
			if alreadyBooked {
				return domain.ErrOfferAlreadyBooked
			}

			if err := domain.CheckQuantity(in.Quantity, offer.IsDuo); err != nil {
				return err
			}
			if err := domain.CheckCanBookFreeOffer(user, stock); err != nil {
				return err
			}
			if err := domain.CheckStockCanSupply(stock, now, in.Quantity); err != nil {
				return err
			}

			candidate := domain.Booking{
				ID:        uuid.NewString(),
				StockID:   stock.ID,
				UserID:    user.ID,
				Quantity:  in.Quantity,
				Amount:    stock.Price,
				Token:     token,
				Status:    domain.BookingStatusBooked,
				CreatedAt: now,
			}

			lines, err := s.repo.ListExpenseLines(txCtx, user.ID)
			if err != nil {
				return err
			}
			current := domain.ComputeExpenses(lines, s.ceilings)
			if err := domain.CheckExpenseLimits(current, domain.ExpenseLine{
				Amount:    candidate.Amount,
				Quantity:  candidate.Quantity,
				OfferKind: offer.Kind,
			}); err != nil {
				return err
			}

			if err := s.repo.CreateBooking(txCtx, candidate); err != nil {
				return err
			}

			booking = candidate
			return nil
		})
	}

	var err error
	for i := 0; i < tokenAttempts; i++ {
		err = attempt()
		if !errors.Is(err, domain.ErrTokenCollision) {
			break
		}
	}
	if err != nil {
		monitoring.BookingRejected(rejectionReason(err))
		return domain.Booking{}, err
	}

	monitoring.BookingCreated(string(offer.Kind))
	s.dispatchNotifications(ctx, user, booking, offer)
	return booking, nil
}

// dispatchNotifications runs after commit; failures are logged and
// counted, never returned.
func (s *BookingService) dispatchNotifications(ctx context.Context, user domain.User, booking domain.Booking, offer domain.Offer) {
	if err := s.notifier.BookingConfirmed(ctx, user, booking, offer); err != nil {
		monitoring.NotificationFailed()
		s.logger.Printf("WARN: booking confirmation notify failed booking=%s: %v", booking.ID, err)
	}
	if err := s.notifier.OffererRecap(ctx, booking, offer); err != nil {
		monitoring.NotificationFailed()
		s.logger.Printf("WARN: offerer recap notify failed booking=%s: %v", booking.ID, err)
	}
}

// CancelBooking moves a booked reservation to cancelled. Cancelled
// bookings stop counting toward capacity and expense ceilings, both of
// which are derived sums over live bookings.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		switch booking.Status {
		case domain.BookingStatusCancelled:
			return domain.ErrBookingAlreadyCancelled
		case domain.BookingStatusUsed:
			return domain.ErrBookingAlreadyUsed
		}

		booking.Status = domain.BookingStatusCancelled
		booking.CancelledAt = &now
		if err := s.repo.MarkBookingCancelled(txCtx, booking); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// RedeemBooking marks a booking as used when the offerer validates the
// token at the venue.
func (s *BookingService) RedeemBooking(ctx context.Context, token string) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingByTokenForUpdate(txCtx, token)
		if err != nil {
			return err
		}
		switch booking.Status {
		case domain.BookingStatusUsed:
			return domain.ErrBookingAlreadyUsed
		case domain.BookingStatusCancelled:
			return domain.ErrBookingAlreadyCancelled
		}

		booking.Status = domain.BookingStatusUsed
		booking.UsedAt = &now
		if err := s.repo.MarkBookingUsed(txCtx, booking); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

type BookingDetails struct {
	Booking domain.Booking
	Offer   domain.Offer
}

// GetBookingByToken returns the booking and its offer for the offerer
// validation console.
func (s *BookingService) GetBookingByToken(ctx context.Context, token string) (BookingDetails, error) {
	booking, offer, err := s.repo.GetBookingDetailsByToken(ctx, token)
	if err != nil {
		return BookingDetails{}, err
	}
	return BookingDetails{Booking: booking, Offer: offer}, nil
}

// GetUserExpenses recomputes the user's expense report from their live
// bookings.
func (s *BookingService) GetUserExpenses(ctx context.Context, userID string) (domain.Expenses, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return domain.Expenses{}, err
	}
	lines, err := s.repo.ListExpenseLines(ctx, userID)
	if err != nil {
		return domain.Expenses{}, err
	}
	return domain.ComputeExpenses(lines, s.ceilings), nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrStockNotFound):
		return "stock_not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrOfferAlreadyBooked):
		return "offer_already_booked"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrCannotBookFreeOffers):
		return "cannot_book_free_offers"
	case errors.Is(err, domain.ErrStockNotBookable):
		return "stock_not_bookable"
	case errors.Is(err, domain.ErrPhysicalExpenseLimitReached):
		return "physical_expense_limit"
	case errors.Is(err, domain.ErrDigitalExpenseLimitReached):
		return "digital_expense_limit"
	case errors.Is(err, domain.ErrExpenseLimitReached):
		return "expense_limit"
	default:
		return "internal"
	}
}
