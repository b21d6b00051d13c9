package domain

import "github.com/shopspring/decimal"

// Ceilings are the spending caps per expense bucket. A booking of a
// physical good counts toward Physical and All; a digital good toward
// Digital and All; an event only toward All.
type Ceilings struct {
	All      decimal.Decimal
	Physical decimal.Decimal
	Digital  decimal.Decimal
}

// DefaultCeilings returns the standard beneficiary deposit split.
func DefaultCeilings() Ceilings {
	return Ceilings{
		All:      decimal.NewFromInt(500),
		Physical: decimal.NewFromInt(200),
		Digital:  decimal.NewFromInt(200),
	}
}

// Expense is one bucket's ceiling and the amount consumed so far.
type Expense struct {
	Max    decimal.Decimal
	Actual decimal.Decimal
}

// Expenses is the full report for a user.
type Expenses struct {
	All      Expense
	Physical Expense
	Digital  Expense
}

// ExpenseLine is the contribution of one live booking: its frozen unit
// amount, quantity, and the kind of the booked offer.
type ExpenseLine struct {
	Amount    decimal.Decimal
	Quantity  int
	OfferKind OfferKind
}

func (l ExpenseLine) total() decimal.Decimal {
	return l.Amount.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ComputeExpenses recomputes the report from scratch over the user's
// live bookings. No caching: per-user history is small and correctness
// of the ceilings matters more than the repeated sum.
func ComputeExpenses(lines []ExpenseLine, ceilings Ceilings) Expenses {
	exp := Expenses{
		All:      Expense{Max: ceilings.All, Actual: decimal.Zero},
		Physical: Expense{Max: ceilings.Physical, Actual: decimal.Zero},
		Digital:  Expense{Max: ceilings.Digital, Actual: decimal.Zero},
	}
	for _, l := range lines {
		total := l.total()
		exp.All.Actual = exp.All.Actual.Add(total)
		switch l.OfferKind {
		case OfferKindPhysical:
			exp.Physical.Actual = exp.Physical.Actual.Add(total)
		case OfferKindDigital:
			exp.Digital.Actual = exp.Digital.Actual.Add(total)
		}
	}
	return exp
}

// CheckExpenseLimits rejects the candidate line if adding it to the
// current report would push any bucket past its ceiling. Reaching a
// ceiling exactly is allowed. Buckets are checked physical, digital,
// then global, and the first overflow wins.
func CheckExpenseLimits(current Expenses, candidate ExpenseLine) error {
	total := candidate.total()
	switch candidate.OfferKind {
	case OfferKindPhysical:
		if current.Physical.Actual.Add(total).GreaterThan(current.Physical.Max) {
			return ErrPhysicalExpenseLimitReached
		}
	case OfferKindDigital:
		if current.Digital.Actual.Add(total).GreaterThan(current.Digital.Max) {
			return ErrDigitalExpenseLimitReached
		}
	}
	if current.All.Actual.Add(total).GreaterThan(current.All.Max) {
		return ErrExpenseLimitReached
	}
	return nil
}
