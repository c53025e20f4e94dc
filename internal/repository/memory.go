package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"purepick/internal/models"
)

type userRecord struct {
	user         *models.User
	passwordHash string
}

type cachedAnalysis struct {
	details   *models.ScannedProductDetails
	expiresAt time.Time
}

// MemoryRepository keeps everything in process. It is the default backend and
// the one used by service tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	users      map[string]*userRecord
	orders     map[string][]models.Order
	selections map[string]string
	wishlists  map[string][]string
	analyses   map[string]cachedAnalysis
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:      make(map[string]*userRecord),
		orders:     make(map[string][]models.Order),
		selections: make(map[string]string),
		wishlists:  make(map[string][]string),
		analyses:   make(map[string]cachedAnalysis),
		now:        time.Now,
	}
}

func (r *MemoryRepository) GetUser(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return rec.user.Clone(), nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return fmt.Errorf("user %s: %w", user.Email, ErrUserExists)
	}
	r.users[user.Email] = &userRecord{user: user.Clone(), passwordHash: passwordHash}
	return nil
}

func (r *MemoryRepository) SaveUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[user.Email]
	if !ok {
		return fmt.Errorf("user %s: %w", user.Email, ErrNotFound)
	}
	updated := user.Clone()
	updated.WalletBalance = rec.user.WalletBalance
	rec.user = updated
	return nil
}

func (r *MemoryRepository) PasswordHash(_ context.Context, email string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[email]
	if !ok {
		return "", fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return rec.passwordHash, nil
}

func (r *MemoryRepository) LoadOrders(_ context.Context, email string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneOrders(r.orders[email]), nil
}

func (r *MemoryRepository) SaveOrders(_ context.Context, email string, orders []models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[email] = cloneOrders(orders)
	return nil
}

func (r *MemoryRepository) CommitCheckout(_ context.Context, email string, expectedBalance, newBalance float64, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[email]
	if !ok {
		return fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if rec.user.WalletBalance != expectedBalance {
		return ErrConflict
	}

	rec.user.WalletBalance = newBalance
	snapshot := cloneOrders([]models.Order{order})
	r.orders[email] = append(snapshot, r.orders[email]...)
	return nil
}

func (r *MemoryRepository) LoadStoreSelection(_ context.Context, email string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	storeID, ok := r.selections[email]
	if !ok {
		return "", ErrNotFound
	}
	return storeID, nil
}

func (r *MemoryRepository) SaveStoreSelection(_ context.Context, email, storeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections[email] = storeID
	return nil
}

func wishlistKey(email, storeID string) string {
	return email + "|" + storeID
}

func (r *MemoryRepository) LoadWishlist(_ context.Context, email, storeID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.wishlists[wishlistKey(email, storeID)]...), nil
}

func (r *MemoryRepository) SaveWishlist(_ context.Context, email, storeID string, productIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := wishlistKey(email, storeID)
	if len(productIDs) == 0 {
		delete(r.wishlists, key)
		return nil
	}
	r.wishlists[key] = append([]string(nil), productIDs...)
	return nil
}

func (r *MemoryRepository) GetAnalysis(_ context.Context, barcode string) (*models.ScannedProductDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.analyses[barcode]
	if !ok || (!entry.expiresAt.IsZero() && r.now().After(entry.expiresAt)) {
		return nil, ErrNotFound
	}
	return cloneDetails(entry.details), nil
}

func (r *MemoryRepository) PutAnalysis(_ context.Context, barcode string, details *models.ScannedProductDetails, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := cachedAnalysis{details: cloneDetails(details)}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.analyses[barcode] = entry
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
