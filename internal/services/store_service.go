package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"purepick/internal/catalog"
	"purepick/internal/models"
	"purepick/internal/repository"
)

const earthRadiusMiles = 3958.8

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

type StoreService struct {
	catalog *catalog.Catalog
	repo    repository.Repository
	carts   *CartService
	logger  *zap.Logger
}

func NewStoreService(c *catalog.Catalog, repo repository.Repository, carts *CartService, logger *zap.Logger) *StoreService {
	return &StoreService{catalog: c, repo: repo, carts: carts, logger: logger}
}

func (s *StoreService) List() []models.Store {
	return s.catalog.Stores()
}

func (s *StoreService) Get(id string) (models.Store, error) {
	return s.catalog.Store(id)
}

func (s *StoreService) Default() models.Store {
	return s.catalog.DefaultStore()
}

// Nearest returns the closest store and its distance in miles.
func (s *StoreService) Nearest(lat, lng float64) (models.Store, float64) {
	var (
		best     models.Store
		bestDist = math.Inf(1)
	)
	for _, store := range s.catalog.Stores() {
		d := Haversine(lat, lng, store.Latitude, store.Longitude)
		if d < bestDist {
			best, bestDist = store, d
		}
	}
	return best, bestDist
}

// Current returns the user's selected store, falling back to the default
// store when nothing valid is saved.
func (s *StoreService) Current(ctx context.Context, email string) (models.Store, error) {
	storeID, err := s.repo.LoadStoreSelection(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return s.catalog.DefaultStore(), nil
	}
	if err != nil {
		return models.Store{}, fmt.Errorf("load store selection: %w", err)
	}

	store, err := s.catalog.Store(storeID)
	if err != nil {
		s.logger.Warn("saved store no longer in catalog",
			zap.String("user", email), zap.String("store_id", storeID))
		return s.catalog.DefaultStore(), nil
	}
	return store, nil
}

// Select switches the user's store. Switching with a non-empty cart requires
// confirm, and then clears the cart.
func (s *StoreService) Select(ctx context.Context, email, storeID string, confirm bool) (models.Store, error) {
	store, err := s.catalog.Store(storeID)
	if err != nil {
		return models.Store{}, err
	}
	current, err := s.Current(ctx, email)
	if err != nil {
		return models.Store{}, err
	}

	if store.ID != current.ID && !s.carts.IsEmpty(email) {
		if !confirm {
			return models.Store{}, ErrCartNotEmpty
		}
		s.carts.Clear(email)
		s.logger.Info("cart cleared on store switch",
			zap.String("user", email), zap.String("from", current.ID), zap.String("to", store.ID))
	}

	if err := s.repo.SaveStoreSelection(ctx, email, store.ID); err != nil {
		return models.Store{}, fmt.Errorf("save store selection: %w", err)
	}
	return store, nil
}
