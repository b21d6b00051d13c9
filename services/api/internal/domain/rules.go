package domain

import "time"

// Admission rules for a booking attempt. Each rule is a pure predicate
// over already-loaded records; the booking service runs them in a fixed
// order inside the stock row lock, and the first failing rule wins.

// CheckQuantity validates the requested quantity against the offer's
// duo flag: exactly 1 for solo offers, 1 or 2 for duo offers.
func CheckQuantity(quantity int, isDuo bool) error {
	if quantity == 1 {
		return nil
	}
	if isDuo && quantity == 2 {
		return nil
	}
	return ErrInvalidQuantity
}

// CheckCanBookFreeOffer rejects zero-price bookings from users without
// the free-offer permission.
func CheckCanBookFreeOffer(user User, stock Stock) error {
	if stock.Price.IsZero() && !user.CanBookFreeOffers {
		return ErrCannotBookFreeOffers
	}
	return nil
}

// CheckStockCanSupply validates that the stock accepts a booking of the
// requested quantity right now: not soft-deleted, booking limit not
// passed, and enough remaining capacity. Callers must have loaded the
// stock's BookedQuantity under the same lock that guards the insert,
// otherwise the capacity comparison races.
func CheckStockCanSupply(stock Stock, now time.Time, quantity int) error {
	if stock.SoftDeleted {
		return ErrStockNotBookable
	}
	if stock.BookingLimitAt != nil && !stock.BookingLimitAt.After(now) {
		return ErrStockNotBookable
	}
	if stock.Quantity != nil && stock.Remaining() < quantity {
		return ErrStockNotBookable
	}
	return nil
}
