package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/culturepass/booking-api/services/api/internal/clock"
	"github.com/culturepass/booking-api/services/api/internal/domain"
)

type CatalogRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	CreateOffer(ctx context.Context, offer domain.Offer) error
	ListOffers(ctx context.Context) ([]domain.Offer, error)
	CreateStock(ctx context.Context, stock domain.Stock) error
	ListStocksByOffer(ctx context.Context, offerID string) ([]domain.Stock, error)
	SoftDeleteStock(ctx context.Context, stockID string) error
}

// CatalogService covers the pro-console subset: beneficiary accounts,
// offers, and their stocks.
type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

type CreateUserInput struct {
	Email             string
	CanBookFreeOffers bool
}

func (s *CatalogService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return domain.User{}, domain.ErrEmailRequired
	}

	user := domain.User{
		ID:                uuid.NewString(),
		Email:             email,
		CanBookFreeOffers: in.CanBookFreeOffers,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

type CreateOfferInput struct {
	VenueName string
	Name      string
	Kind      domain.OfferKind
	IsDuo     bool
}

func (s *CatalogService) CreateOffer(ctx context.Context, in CreateOfferInput) (domain.Offer, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Offer{}, domain.ErrOfferNameRequired
	}
	if !domain.ValidOfferKind(in.Kind) {
		return domain.Offer{}, domain.ErrInvalidOfferKind
	}

	offer := domain.Offer{
		ID:        uuid.NewString(),
		VenueName: strings.TrimSpace(in.VenueName),
		Name:      strings.TrimSpace(in.Name),
		Kind:      in.Kind,
		IsDuo:     in.IsDuo,
		Active:    true,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return domain.Offer{}, err
	}
	return offer, nil
}

func (s *CatalogService) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	return s.repo.ListOffers(ctx)
}

type CreateStockInput struct {
	OfferID        string
	Price          decimal.Decimal
	Quantity       *int
	BookingLimitAt *time.Time
}

func (s *CatalogService) CreateStock(ctx context.Context, in CreateStockInput) (domain.Stock, error) {
	if in.OfferID == "" {
		return domain.Stock{}, domain.ErrInvalidID
	}
	if in.Price.IsNegative() {
		return domain.Stock{}, domain.ErrInvalidPrice
	}
	if in.Quantity != nil && *in.Quantity <= 0 {
		return domain.Stock{}, domain.ErrInvalidCapacity
	}

	stock := domain.Stock{
		ID:             uuid.NewString(),
		OfferID:        in.OfferID,
		Price:          in.Price,
		Quantity:       in.Quantity,
		BookingLimitAt: in.BookingLimitAt,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.CreateStock(ctx, stock); err != nil {
		return domain.Stock{}, err
	}
	return stock, nil
}

func (s *CatalogService) ListStocks(ctx context.Context, offerID string) ([]domain.Stock, error) {
	if offerID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListStocksByOffer(ctx, offerID)
}

// SoftDeleteStock hides the stock from booking without touching its
// existing bookings.
func (s *CatalogService) SoftDeleteStock(ctx context.Context, stockID string) error {
	if stockID == "" {
		return domain.ErrInvalidID
	}
	return s.repo.SoftDeleteStock(ctx, stockID)
}
