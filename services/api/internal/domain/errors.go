package domain

import "errors"

var (
	ErrStockNotFound               = errors.New("stock not found")
	ErrUserNotFound                = errors.New("user not found")
	ErrOfferNotFound               = errors.New("offer not found")
	ErrBookingNotFound             = errors.New("booking not found")
	ErrOfferAlreadyBooked          = errors.New("offer already booked by this user")
	ErrInvalidQuantity             = errors.New("invalid quantity")
	ErrStockNotBookable            = errors.New("stock is not bookable")
	ErrCannotBookFreeOffers        = errors.New("user cannot book free offers")
	ErrExpenseLimitReached         = errors.New("expense limit reached")
	ErrPhysicalExpenseLimitReached = errors.New("physical expense limit reached")
	ErrDigitalExpenseLimitReached  = errors.New("digital expense limit reached")
	ErrBookingAlreadyCancelled     = errors.New("booking already cancelled")
	ErrBookingAlreadyUsed          = errors.New("booking already used")
	ErrTokenCollision              = errors.New("booking token collision")
	ErrOfferNameRequired           = errors.New("offer name required")
	ErrInvalidOfferKind            = errors.New("invalid offer kind")
	ErrInvalidPrice                = errors.New("invalid price")
	ErrInvalidCapacity             = errors.New("invalid capacity")
	ErrEmailRequired               = errors.New("email required")
	ErrEmailAlreadyUsed            = errors.New("email already registered")
	ErrInvalidID                   = errors.New("invalid id")
)
