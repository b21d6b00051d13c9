package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/culturepass/booking-api/services/api/internal/domain"
	"github.com/culturepass/booking-api/services/api/internal/testutil"
)

func TestBookingRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewBookingRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	price := decimal.NewFromInt(10)

	t.Run("GetStockForUpdate returns stock, offer and derived booked quantity", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		userID := testutil.InsertUser(t, ctx, pool, "a@example.test", false)
		offerID := testutil.InsertOffer(t, ctx, pool, "Concert", domain.OfferKindEvent, true)
		qty := 10
		stockID := testutil.InsertStock(t, ctx, pool, offerID, price, &qty, nil)

		testutil.InsertBooking(t, ctx, pool, domain.Booking{
			StockID: stockID, UserID: userID, Quantity: 2, Amount: price,
			Token: "AAAAAA", Status: domain.BookingStatusBooked,
		})
		testutil.InsertBooking(t, ctx, pool, domain.Booking{
			StockID: stockID, UserID: userID, Quantity: 1, Amount: price,
			Token: "BBBBBB", Status: domain.BookingStatusCancelled,
		})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			stock, offer, err := repo.GetStockForUpdate(txCtx, stockID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if stock.ID != stockID || stock.OfferID != offerID {
				t.Fatalf("unexpected stock: %+v", stock)
			}
			if !stock.Price.Equal(price) {
				t.Fatalf("Price = %s, want %s", stock.Price, price)
			}
			if stock.BookedQuantity != 2 {
				t.Fatalf("BookedQuantity = %d, want 2 (cancelled excluded)", stock.BookedQuantity)
			}
			if offer.ID != offerID || offer.Kind != domain.OfferKindEvent || !offer.IsDuo {
				t.Fatalf("unexpected offer: %+v", offer)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		missing := "00000000-0000-0000-0000-000000000001"
		if _, _, err := repo.GetStockForUpdate(ctx, missing); err != domain.ErrStockNotFound {
			t.Fatalf("expected ErrStockNotFound, got %v", err)
		}
		if _, _, err := repo.GetStockForUpdate(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("GetUser maps missing rows", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		userID := testutil.InsertUser(t, ctx, pool, "b@example.test", true)

		user, err := repo.GetUser(ctx, userID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !user.CanBookFreeOffers || user.Email != "b@example.test" {
			t.Fatalf("unexpected user: %+v", user)
		}

		missing := "00000000-0000-0000-0000-000000000001"
		if _, err := repo.GetUser(ctx, missing); err != domain.ErrUserNotFound {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("HasLiveBookingForOffer sees every stock of the offer", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		userID := testutil.InsertUser(t, ctx, pool, "c@example.test", false)
		offerID := testutil.InsertOffer(t, ctx, pool, "Concert", domain.OfferKindEvent, false)
		stockA := testutil.InsertStock(t, ctx, pool, offerID, price, nil, nil)
		testutil.InsertStock(t, ctx, pool, offerID, price, nil, nil)

		has, err := repo.HasLiveBookingForOffer(ctx, userID, offerID)
		if err != nil || has {
			t.Fatalf("expected no live booking, got %v / %v", has, err)
		}

		bookingID := testutil.InsertBooking(t, ctx, pool, domain.Booking{
			StockID: stockA, UserID: userID, Quantity: 1, Amount: price,
			Token: "CCCCCC", Status: domain.BookingStatusBooked,
		})

		has, err = repo.HasLiveBookingForOffer(ctx, userID, offerID)
		if err != nil || !has {
			t.Fatalf("expected live booking, got %v / %v", has, err)
		}

		// Cancelling drops it out of the duplicate check.
		if _, err := pool.Exec(ctx, `UPDATE bookings SET status = 'cancelled' WHERE id = $1`, bookingID); err != nil {
			t.Fatalf("cancel booking: %v", err)
		}
		has, err = repo.HasLiveBookingForOffer(ctx, userID, offerID)
		if err != nil || has {
			t.Fatalf("expected no live booking after cancel, got %v / %v", has, err)
		}
	})

	t.Run("ListExpenseLines joins offer kinds and skips cancelled", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		userID := testutil.InsertUser(t, ctx, pool, "d@example.test", false)
		bookOfferID := testutil.InsertOffer(t, ctx, pool, "Novel", domain.OfferKindPhysical, false)
		appOfferID := testutil.InsertOffer(t, ctx, pool, "App", domain.OfferKindDigital, false)
		bookStock := testutil.InsertStock(t, ctx, pool, bookOfferID, decimal.NewFromInt(15), nil, nil)
		appStock := testutil.InsertStock(t, ctx, pool, appOfferID, decimal.NewFromInt(5), nil, nil)

		testutil.InsertBooking(t, ctx, pool, domain.Booking{
			StockID: bookStock, UserID: userID, Quantity: 1, Amount: decimal.NewFromInt(15),
			Token: "DDDDDD", Status: domain.BookingStatusBooked,
		})
		testutil.InsertBooking(t, ctx, pool, domain.Booking{
			StockID: appStock, UserID: userID, Quantity: 1, Amount: decimal.NewFromInt(5),
			Token: "EEEEEE", Status: domain.BookingStatusCancelled,
		})

		lines, err := repo.ListExpenseLines(ctx, userID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(lines))
		}
		if lines[0].OfferKind != domain.OfferKindPhysical || !lines[0].Amount.Equal(decimal.NewFromInt(15)) {
			t.Fatalf("unexpected line: %+v", lines[0])
		}
	})

	t.Run("CreateBooking maps token collisions", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		userID := testutil.InsertUser(t, ctx, pool, "e@example.test", false)
		offerID := testutil.InsertOffer(t, ctx, pool, "Concert", domain.OfferKindEvent, false)
		stockID := testutil.InsertStock(t, ctx, pool, offerID, price, nil, nil)

		booking := domain.Booking{
			ID:        uuid.NewString(),
			StockID:   stockID,
			UserID:    userID,
			Quantity:  1,
			Amount:    price,
			Token:     "FFFFFF",
			Status:    domain.BookingStatusBooked,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.CreateBooking(ctx, booking); err != nil {
			t.Fatalf("create booking: %v", err)
		}

		dup := booking
		dup.ID = uuid.NewString()
		if err := repo.CreateBooking(ctx, dup); err != domain.ErrTokenCollision {
			t.Fatalf("expected ErrTokenCollision, got %v", err)
		}
	})

	t.Run("lifecycle updates stamp timestamps", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		userID := testutil.InsertUser(t, ctx, pool, "f@example.test", false)
		offerID := testutil.InsertOffer(t, ctx, pool, "Concert", domain.OfferKindEvent, false)
		stockID := testutil.InsertStock(t, ctx, pool, offerID, price, nil, nil)
		bookingID := testutil.InsertBooking(t, ctx, pool, domain.Booking{
			StockID: stockID, UserID: userID, Quantity: 1, Amount: price,
			Token: "GGGGGG", Status: domain.BookingStatusBooked,
		})

		now := time.Now().UTC().Truncate(time.Microsecond)
		err := repo.MarkBookingCancelled(ctx, domain.Booking{ID: bookingID, CancelledAt: &now})
		if err != nil {
			t.Fatalf("mark cancelled: %v", err)
		}

		got, err := repo.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			t.Fatalf("get booking: %v", err)
		}
		if got.Status != domain.BookingStatusCancelled || got.CancelledAt == nil {
			t.Fatalf("unexpected booking after cancel: %+v", got)
		}

		missing := "00000000-0000-0000-0000-000000000001"
		if err := repo.MarkBookingUsed(ctx, domain.Booking{ID: missing, UsedAt: &now}); err != domain.ErrBookingNotFound {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})

	t.Run("GetBookingDetailsByToken returns offer context", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		userID := testutil.InsertUser(t, ctx, pool, "g@example.test", false)
		offerID := testutil.InsertOffer(t, ctx, pool, "Concert", domain.OfferKindEvent, false)
		stockID := testutil.InsertStock(t, ctx, pool, offerID, price, nil, nil)
		testutil.InsertBooking(t, ctx, pool, domain.Booking{
			StockID: stockID, UserID: userID, Quantity: 1, Amount: price,
			Token: "HHHHHH", Status: domain.BookingStatusBooked,
		})

		booking, offer, err := repo.GetBookingDetailsByToken(ctx, "HHHHHH")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if booking.Token != "HHHHHH" || offer.ID != offerID || offer.Name != "Concert" {
			t.Fatalf("unexpected details: %+v / %+v", booking, offer)
		}

		if _, _, err := repo.GetBookingDetailsByToken(ctx, "NOSUCH"); err != domain.ErrBookingNotFound {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})
}

// TestBookingRepository_LastUnitRace books the final unit from two
// goroutines; the stock row lock must let exactly one insert through.
func TestBookingRepository_LastUnitRace(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	price := decimal.NewFromInt(10)
	offerID := testutil.InsertOffer(t, ctx, pool, "Concert", domain.OfferKindEvent, false)
	qty := 1
	stockID := testutil.InsertStock(t, ctx, pool, offerID, price, &qty, nil)
	userA := testutil.InsertUser(t, ctx, pool, "race-a@example.test", false)
	userB := testutil.InsertUser(t, ctx, pool, "race-b@example.test", false)

	book := func(userID, token string) error {
		return repo.WithTx(ctx, func(txCtx context.Context) error {
			stock, _, err := repo.GetStockForUpdate(txCtx, stockID)
			if err != nil {
				return err
			}
			if stock.Quantity != nil && stock.Remaining() < 1 {
				return domain.ErrStockNotBookable
			}
			return repo.CreateBooking(txCtx, domain.Booking{
				ID:        uuid.NewString(),
				StockID:   stockID,
				UserID:    userID,
				Quantity:  1,
				Amount:    price,
				Token:     token,
				Status:    domain.BookingStatusBooked,
				CreatedAt: time.Now().UTC(),
			})
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); errs[0] = book(userA, "RACEAA") }()
	go func() { defer wg.Done(); errs[1] = book(userB, "RACEBB") }()
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, domain.ErrStockNotBookable) {
			t.Fatalf("unexpected race error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d (errs: %v)", successes, errs)
	}

	var booked int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM bookings WHERE stock_id = $1 AND status <> 'cancelled'`, stockID).Scan(&booked); err != nil {
		t.Fatalf("sum booked: %v", err)
	}
	if booked != 1 {
		t.Fatalf("booked quantity = %d, capacity invariant violated", booked)
	}
}
