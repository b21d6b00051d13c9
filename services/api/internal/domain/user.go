package domain

import "time"

// User is a beneficiary account booking offers from the catalog.
type User struct {
	ID                string
	Email             string
	CanBookFreeOffers bool
	CreatedAt         time.Time
}
