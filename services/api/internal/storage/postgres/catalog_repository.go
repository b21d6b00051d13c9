package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/culturepass/booking-api/services/api/internal/domain"
)

type CatalogRepository struct {
	querier
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{querier{pool: pool}}
}

func (r *CatalogRepository) CreateUser(ctx context.Context, user domain.User) error {
	const stmt = `
INSERT INTO users (id, email, can_book_free_offers, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, user.ID, user.Email, user.CanBookFreeOffers, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyUsed
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *CatalogRepository) CreateOffer(ctx context.Context, offer domain.Offer) error {
	const stmt = `
INSERT INTO offers (id, venue_name, name, kind, is_duo, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		offer.ID, offer.VenueName, offer.Name, offer.Kind, offer.IsDuo, offer.Active, offer.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create offer: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	const query = `
SELECT id, venue_name, name, kind, is_duo, active, created_at
FROM offers
ORDER BY created_at ASC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var (
			o    domain.Offer
			kind string
		)
		if err := rows.Scan(&o.ID, &o.VenueName, &o.Name, &kind, &o.IsDuo, &o.Active, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		o.Kind = domain.OfferKind(kind)
		offers = append(offers, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate offers: %w", rows.Err())
	}
	return offers, nil
}

func (r *CatalogRepository) CreateStock(ctx context.Context, stock domain.Stock) error {
	const stmt = `
INSERT INTO stocks (id, offer_id, price, quantity, booking_limit_at, soft_deleted, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		stock.ID, stock.OfferID, stock.Price.String(), stock.Quantity, stock.BookingLimitAt, stock.SoftDeleted, stock.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrOfferNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create stock: %w", err)
	}
	return nil
}

// ListStocksByOffer returns the offer's stocks with their derived
// booked quantity, so callers can show remaining capacity.
func (r *CatalogRepository) ListStocksByOffer(ctx context.Context, offerID string) ([]domain.Stock, error) {
	var exists bool
	if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1)`, offerID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("check offer: %w", err)
	}
	if !exists {
		return nil, domain.ErrOfferNotFound
	}

	const query = `
SELECT s.id, s.offer_id, s.price::text, s.quantity, s.booking_limit_at, s.soft_deleted, s.created_at,
       COALESCE(SUM(b.quantity) FILTER (WHERE b.status <> 'cancelled'), 0)
FROM stocks s
LEFT JOIN bookings b ON b.stock_id = s.id
WHERE s.offer_id = $1
GROUP BY s.id
ORDER BY s.created_at ASC`

	rows, err := r.query(ctx, query, offerID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		var (
			s     domain.Stock
			price string
		)
		if err := rows.Scan(&s.ID, &s.OfferID, &price, &s.Quantity, &s.BookingLimitAt, &s.SoftDeleted, &s.CreatedAt, &s.BookedQuantity); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		s.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse stock price: %w", err)
		}
		stocks = append(stocks, s)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate stocks: %w", rows.Err())
	}
	return stocks, nil
}

func (r *CatalogRepository) SoftDeleteStock(ctx context.Context, stockID string) error {
	const stmt = `UPDATE stocks SET soft_deleted = TRUE WHERE id = $1`

	tag, err := r.exec(ctx, stmt, stockID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("soft delete stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}
