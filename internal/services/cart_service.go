package services

import (
	"fmt"
	"sync"
	"time"

	"purepick/internal/catalog"
	"purepick/internal/models"
)

// CartService holds one in-memory cart per user. Carts are session state and
// are not persisted.
type CartService struct {
	mu      sync.RWMutex
	carts   map[string]*models.Cart // user email -> cart
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewCartService(c *catalog.Catalog) *CartService {
	return &CartService{
		carts:   make(map[string]*models.Cart),
		catalog: c,
		now:     time.Now,
	}
}

func summarize(cart models.Cart) *models.CartSummary {
	return &models.CartSummary{
		Cart:        cart,
		Subtotal:    Subtotal(cart.Items),
		ItemCount:   ItemCount(cart.Items),
		AvgEcoScore: AverageEcoScore(cart.Items),
	}
}

// cartLocked returns the user's cart, creating it. Callers hold s.mu.
func (s *CartService) cartLocked(email string) *models.Cart {
	cart, ok := s.carts[email]
	if !ok {
		cart = &models.Cart{UserEmail: email, Items: []models.CartItem{}}
		s.carts[email] = cart
	}
	return cart
}

func copyCart(c *models.Cart) models.Cart {
	out := *c
	out.Items = models.CloneItems(c.Items)
	return out
}

func (s *CartService) Get(email string) *models.CartSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[email]
	if !ok {
		return summarize(models.Cart{UserEmail: email, Items: []models.CartItem{}})
	}
	return summarize(copyCart(cart))
}

// Snapshot returns a deep copy of the cart for checkout.
func (s *CartService) Snapshot(email string) models.Cart {
	return s.Get(email).Cart
}

// Add puts quantity units of a store product in the cart, incrementing an
// existing line. A quantity below 1 adds one unit.
func (s *CartService) Add(email, storeID, productID string, quantity int) (*models.CartSummary, error) {
	if quantity < 1 {
		quantity = 1
	}
	product, err := s.catalog.Product(storeID, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(email)
	if len(cart.Items) == 0 {
		cart.StoreID = storeID
	} else if cart.StoreID != storeID {
		return nil, fmt.Errorf("cart holds items from store %s: %w", cart.StoreID, ErrCartNotEmpty)
	}

	found := false
	for i, item := range cart.Items {
		if item.ID == productID {
			cart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{Product: product, Quantity: quantity})
	}
	cart.UpdatedAt = s.now()

	return summarize(copyCart(cart)), nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (s *CartService) UpdateQuantity(email, productID string, quantity int) (*models.CartSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(email)
	for i, item := range cart.Items {
		if item.ID != productID {
			continue
		}
		if quantity <= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		} else {
			cart.Items[i].Quantity = quantity
		}
		cart.UpdatedAt = s.now()
		return summarize(copyCart(cart)), nil
	}
	return nil, ErrItemNotInCart
}

func (s *CartService) Remove(email, productID string) (*models.CartSummary, error) {
	return s.UpdateQuantity(email, productID, 0)
}

func (s *CartService) Clear(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, email)
}

// Deduct removes the ordered quantities from the cart. Lines added or topped
// up after the order was priced stay in the cart.
func (s *CartService) Deduct(email string, ordered []models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[email]
	if !ok {
		return
	}

	bought := make(map[string]int, len(ordered))
	for _, item := range ordered {
		bought[item.ID] += item.Quantity
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		item.Quantity -= bought[item.ID]
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		delete(s.carts, email)
		return
	}
	cart.Items = kept
	cart.UpdatedAt = s.now()
}

func (s *CartService) IsEmpty(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[email]
	return !ok || len(cart.Items) == 0
}
