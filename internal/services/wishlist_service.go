package services

import (
	"context"
	"fmt"

	"purepick/internal/catalog"
	"purepick/internal/models"
	"purepick/internal/repository"
)

// WishlistService keeps one wishlist per user per store.
type WishlistService struct {
	repo    repository.Repository
	catalog *catalog.Catalog
}

func NewWishlistService(repo repository.Repository, c *catalog.Catalog) *WishlistService {
	return &WishlistService{repo: repo, catalog: c}
}

// List returns the wishlisted products at current store prices. Products the
// store no longer carries are skipped.
func (s *WishlistService) List(ctx context.Context, email, storeID string) ([]models.Product, error) {
	ids, err := s.repo.LoadWishlist(ctx, email, storeID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.catalog.Product(storeID, id)
		if err != nil {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Add is idempotent.
func (s *WishlistService) Add(ctx context.Context, email, storeID, productID string) ([]models.Product, error) {
	if _, err := s.catalog.Product(storeID, productID); err != nil {
		return nil, err
	}
	ids, err := s.repo.LoadWishlist(ctx, email, storeID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	for _, id := range ids {
		if id == productID {
			return s.List(ctx, email, storeID)
		}
	}
	if err := s.repo.SaveWishlist(ctx, email, storeID, append(ids, productID)); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	return s.List(ctx, email, storeID)
}

func (s *WishlistService) Remove(ctx context.Context, email, storeID, productID string) ([]models.Product, error) {
	ids, err := s.repo.LoadWishlist(ctx, email, storeID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != productID {
			kept = append(kept, id)
		}
	}
	if err := s.repo.SaveWishlist(ctx, email, storeID, kept); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	return s.List(ctx, email, storeID)
}

func (s *WishlistService) Clear(ctx context.Context, email, storeID string) error {
	return s.repo.SaveWishlist(ctx, email, storeID, nil)
}
