package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/culturepass/booking-api/services/api/internal/domain"
)

type BookingRepository struct {
	querier
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{querier{pool: pool}}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetStockForUpdate locks the stock row for the rest of the
// transaction and fills the derived booked quantity from live bookings
// under the same lock, so the capacity comparison cannot race a
// concurrent insert.
func (r *BookingRepository) GetStockForUpdate(ctx context.Context, stockID string) (domain.Stock, domain.Offer, error) {
	const stockQuery = `
SELECT s.id, s.offer_id, s.price::text, s.quantity, s.booking_limit_at, s.soft_deleted, s.created_at,
       o.id, o.venue_name, o.name, o.kind, o.is_duo, o.active, o.created_at
FROM stocks s
JOIN offers o ON o.id = s.offer_id
WHERE s.id = $1
FOR UPDATE OF s`

	var (
		stock domain.Stock
		offer domain.Offer
		price string
		kind  string
	)
	err := r.queryRow(ctx, stockQuery, stockID).Scan(
		&stock.ID, &stock.OfferID, &price, &stock.Quantity, &stock.BookingLimitAt, &stock.SoftDeleted, &stock.CreatedAt,
		&offer.ID, &offer.VenueName, &offer.Name, &kind, &offer.IsDuo, &offer.Active, &offer.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Stock{}, domain.Offer{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Stock{}, domain.Offer{}, domain.ErrStockNotFound
		}
		return domain.Stock{}, domain.Offer{}, fmt.Errorf("get stock for update: %w", err)
	}
	stock.Price, err = decimal.NewFromString(price)
	if err != nil {
		return domain.Stock{}, domain.Offer{}, fmt.Errorf("parse stock price: %w", err)
	}
	offer.Kind = domain.OfferKind(kind)

	const bookedQuery = `
SELECT COALESCE(SUM(quantity), 0)
FROM bookings
WHERE stock_id = $1 AND status <> 'cancelled'`

	if err := r.queryRow(ctx, bookedQuery, stockID).Scan(&stock.BookedQuantity); err != nil {
		return domain.Stock{}, domain.Offer{}, fmt.Errorf("sum booked quantity: %w", err)
	}
	return stock, offer, nil
}

func (r *BookingRepository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	const query = `
SELECT id, email, can_book_free_offers, created_at
FROM users
WHERE id = $1`

	var u domain.User
	err := r.queryRow(ctx, query, userID).Scan(&u.ID, &u.Email, &u.CanBookFreeOffers, &u.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.User{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *BookingRepository) HasLiveBookingForOffer(ctx context.Context, userID, offerID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1
	FROM bookings b
	JOIN stocks s ON s.id = b.stock_id
	WHERE b.user_id = $1 AND s.offer_id = $2 AND b.status <> 'cancelled'
)`

	var exists bool
	if err := r.queryRow(ctx, query, userID, offerID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check live booking: %w", err)
	}
	return exists, nil
}

func (r *BookingRepository) ListExpenseLines(ctx context.Context, userID string) ([]domain.ExpenseLine, error) {
	const query = `
SELECT b.amount::text, b.quantity, o.kind
FROM bookings b
JOIN stocks s ON s.id = b.stock_id
JOIN offers o ON o.id = s.offer_id
WHERE b.user_id = $1 AND b.status <> 'cancelled'`

	rows, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list expense lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.ExpenseLine
	for rows.Next() {
		var (
			line   domain.ExpenseLine
			amount string
			kind   string
		)
		if err := rows.Scan(&amount, &line.Quantity, &kind); err != nil {
			return nil, fmt.Errorf("scan expense line: %w", err)
		}
		line.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse expense amount: %w", err)
		}
		line.OfferKind = domain.OfferKind(kind)
		lines = append(lines, line)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate expense lines: %w", rows.Err())
	}
	return lines, nil
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking domain.Booking) error {
	const stmt = `
INSERT INTO bookings (id, stock_id, user_id, quantity, amount, token, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		booking.ID,
		booking.StockID,
		booking.UserID,
		booking.Quantity,
		booking.Amount.String(),
		booking.Token,
		booking.Status,
		booking.CreatedAt,
	)
	if err != nil {
		if uniqueConstraint(err) == "bookings_token_key" {
			return domain.ErrTokenCollision
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetBookingForUpdate(ctx context.Context, bookingID string) (domain.Booking, error) {
	const query = `
SELECT id, stock_id, user_id, quantity, amount::text, token, status, created_at, used_at, cancelled_at
FROM bookings
WHERE id = $1
FOR UPDATE`

	return r.scanBooking(r.queryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetBookingByTokenForUpdate(ctx context.Context, token string) (domain.Booking, error) {
	const query = `
SELECT id, stock_id, user_id, quantity, amount::text, token, status, created_at, used_at, cancelled_at
FROM bookings
WHERE token = $1
FOR UPDATE`

	return r.scanBooking(r.queryRow(ctx, query, token))
}

func (r *BookingRepository) GetBookingDetailsByToken(ctx context.Context, token string) (domain.Booking, domain.Offer, error) {
	const query = `
SELECT b.id, b.stock_id, b.user_id, b.quantity, b.amount::text, b.token, b.status, b.created_at, b.used_at, b.cancelled_at,
       o.id, o.venue_name, o.name, o.kind, o.is_duo, o.active, o.created_at
FROM bookings b
JOIN stocks s ON s.id = b.stock_id
JOIN offers o ON o.id = s.offer_id
WHERE b.token = $1`

	var (
		b      domain.Booking
		o      domain.Offer
		amount string
		status string
		kind   string
	)
	err := r.queryRow(ctx, query, token).Scan(
		&b.ID, &b.StockID, &b.UserID, &b.Quantity, &amount, &b.Token, &status, &b.CreatedAt, &b.UsedAt, &b.CancelledAt,
		&o.ID, &o.VenueName, &o.Name, &kind, &o.IsDuo, &o.Active, &o.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.Offer{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, domain.Offer{}, fmt.Errorf("get booking by token: %w", err)
	}
	b.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.Booking{}, domain.Offer{}, fmt.Errorf("parse booking amount: %w", err)
	}
	b.Status = domain.BookingStatus(status)
	o.Kind = domain.OfferKind(kind)
	return b, o, nil
}

func (r *BookingRepository) MarkBookingCancelled(ctx context.Context, booking domain.Booking) error {
	const stmt = `
UPDATE bookings
SET status = 'cancelled', cancelled_at = $2
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, booking.ID, booking.CancelledAt)
	if err != nil {
		return fmt.Errorf("mark booking cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) MarkBookingUsed(ctx context.Context, booking domain.Booking) error {
	const stmt = `
UPDATE bookings
SET status = 'used', used_at = $2
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, booking.ID, booking.UsedAt)
	if err != nil {
		return fmt.Errorf("mark booking used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) scanBooking(row pgx.Row) (domain.Booking, error) {
	var (
		b      domain.Booking
		amount string
		status string
	)
	err := row.Scan(&b.ID, &b.StockID, &b.UserID, &b.Quantity, &amount, &b.Token, &status, &b.CreatedAt, &b.UsedAt, &b.CancelledAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	b.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("parse booking amount: %w", err)
	}
	b.Status = domain.BookingStatus(status)
	return b, nil
}
