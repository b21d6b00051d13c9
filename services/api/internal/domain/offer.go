package domain

import "time"

type OfferKind string

const (
	OfferKindEvent    OfferKind = "event"
	OfferKindPhysical OfferKind = "physical"
	OfferKindDigital  OfferKind = "digital"
)

// ValidOfferKind reports whether k is one of the supported offer kinds.
func ValidOfferKind(k OfferKind) bool {
	switch k {
	case OfferKindEvent, OfferKindPhysical, OfferKindDigital:
		return true
	}
	return false
}

// Offer is a sellable catalog entry; it owns zero or more stocks.
type Offer struct {
	ID        string
	VenueName string
	Name      string
	Kind      OfferKind
	IsDuo     bool
	Active    bool
	CreatedAt time.Time
}
