// Package repository persists users, wallets, orders, store selections,
// wishlists and cached product analyses.
package repository

import (
	"context"
	"errors"
	"time"

	"purepick/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
	// ErrConflict is returned by CommitCheckout when the stored wallet balance
	// no longer matches the balance the checkout was computed from.
	ErrConflict = errors.New("wallet balance changed concurrently")
)

// Repository is implemented by the memory, SQLite and Redis backends.
// Every method returns copies; callers may mutate results freely.
type Repository interface {
	GetUser(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, passwordHash string) error
	// SaveUser replaces the profile and addresses. The wallet balance is left
	// untouched; only CommitCheckout moves money.
	SaveUser(ctx context.Context, user *models.User) error
	PasswordHash(ctx context.Context, email string) (string, error)

	// LoadOrders returns the order history newest first.
	LoadOrders(ctx context.Context, email string) ([]models.Order, error)
	SaveOrders(ctx context.Context, email string, orders []models.Order) error

	// CommitCheckout prepends order to the history and sets the wallet balance
	// to newBalance, but only if the stored balance still equals expectedBalance.
	// Both writes happen or neither does.
	CommitCheckout(ctx context.Context, email string, expectedBalance, newBalance float64, order models.Order) error

	LoadStoreSelection(ctx context.Context, email string) (string, error)
	SaveStoreSelection(ctx context.Context, email, storeID string) error

	LoadWishlist(ctx context.Context, email, storeID string) ([]string, error)
	SaveWishlist(ctx context.Context, email, storeID string, productIDs []string) error

	GetAnalysis(ctx context.Context, barcode string) (*models.ScannedProductDetails, error)
	PutAnalysis(ctx context.Context, barcode string, details *models.ScannedProductDetails, ttl time.Duration) error

	Close() error
}

func cloneOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	for i, o := range orders {
		o.Items = models.CloneItems(o.Items)
		o.DeliveryAddress = o.DeliveryAddress.Clone()
		out[i] = o
	}
	return out
}

func cloneDetails(d *models.ScannedProductDetails) *models.ScannedProductDetails {
	c := d.Clone()
	c.Recommendations = nil
	return c
}
