package services

import (
	"errors"

	"purepick/internal/catalog"
	"purepick/internal/repository"
)

// Checkout preconditions. Each is reported inside a *CheckoutError.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoAddress          = errors.New("no delivery address selected")
	ErrAddressNotFound    = errors.New("selected delivery address not found")
	ErrMissingCoordinates = errors.New("delivery address has no coordinates")
	ErrOutOfDeliveryRange = errors.New("delivery address is outside the delivery range")
)

var (
	// ErrConcurrentCheckout means another checkout changed the wallet first.
	// Nothing was written; the caller may retry.
	ErrConcurrentCheckout = errors.New("wallet changed during checkout, please retry")

	ErrUserExists         = repository.ErrUserExists
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProductNotFound    = catalog.ErrProductNotFound
	ErrStoreNotFound      = catalog.ErrStoreNotFound
	ErrCartNotEmpty       = errors.New("cart is not empty, confirm to switch store and clear it")
	ErrItemNotInCart      = errors.New("product is not in the cart")
	ErrEmptyName          = errors.New("name cannot be empty")
)

// CheckoutError is a failed checkout precondition. No state was changed.
type CheckoutError struct {
	Reason error
	Detail string
}

func (e *CheckoutError) Error() string {
	if e.Detail != "" {
		return e.Reason.Error() + ": " + e.Detail
	}
	return e.Reason.Error()
}

func (e *CheckoutError) Unwrap() error {
	return e.Reason
}

func checkoutError(reason error, detail string) *CheckoutError {
	return &CheckoutError{Reason: reason, Detail: detail}
}
