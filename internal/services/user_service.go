package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"purepick/internal/geocode"
	"purepick/internal/models"
	"purepick/internal/repository"
)

// Geocoder looks up coordinates for a free-text address.
type Geocoder interface {
	Suggest(ctx context.Context, query string) ([]geocode.Suggestion, error)
}

type UserService struct {
	repo     repository.Repository
	geocoder Geocoder
	logger   *zap.Logger
}

// NewUserService builds the account service. geocoder may be nil, in which
// case addresses without coordinates are stored as given.
func NewUserService(repo repository.Repository, geocoder Geocoder, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, geocoder: geocoder, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:      strings.TrimSpace(name),
		Email:     email,
		Addresses: []models.Address{},
	}
	if err := s.repo.CreateUser(ctx, user, string(hash)); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user", email))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	hash, err := s.repo.PasswordHash(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.Get(ctx, email)
}

func (s *UserService) Get(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (*models.User, error) {
	return s.update(ctx, email, func(u *models.User) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ErrEmptyName
			}
			u.Name = name
		}
		if req.Phone != nil {
			u.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Gender != nil {
			u.Gender = strings.TrimSpace(*req.Gender)
		}
		return nil
	})
}

// AddAddress stores a new address and selects it. Missing coordinates are
// looked up on a best-effort basis; a failed lookup still saves the address.
func (s *UserService) AddAddress(ctx context.Context, email string, req models.AddAddressRequest) (*models.User, error) {
	address := models.Address{
		ID:          uuid.NewString(),
		Nickname:    strings.TrimSpace(req.Nickname),
		FullAddress: strings.TrimSpace(req.FullAddress),
		Details:     strings.TrimSpace(req.Details),
		Lat:         req.Lat,
		Lng:         req.Lng,
	}
	if !address.HasCoordinates() {
		address.Lat, address.Lng = nil, nil
		s.locate(ctx, &address)
	}

	return s.update(ctx, email, func(u *models.User) error {
		u.Addresses = append(u.Addresses, address)
		u.SelectedAddressID = address.ID
		return nil
	})
}

func (s *UserService) locate(ctx context.Context, address *models.Address) {
	if s.geocoder == nil {
		return
	}
	suggestions, err := s.geocoder.Suggest(ctx, address.FullAddress)
	if err != nil {
		s.logger.Warn("geocoding failed", zap.String("address", address.FullAddress), zap.Error(err))
		return
	}
	if len(suggestions) == 0 {
		return
	}
	lat, lng := suggestions[0].Lat, suggestions[0].Lng
	address.Lat, address.Lng = &lat, &lng
}

// RemoveAddress deletes an address, clearing the selection if it was selected.
func (s *UserService) RemoveAddress(ctx context.Context, email, addressID string) (*models.User, error) {
	return s.update(ctx, email, func(u *models.User) error {
		for i, a := range u.Addresses {
			if a.ID == addressID {
				u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
				if u.SelectedAddressID == addressID {
					u.SelectedAddressID = ""
				}
				return nil
			}
		}
		return ErrAddressNotFound
	})
}

func (s *UserService) SelectAddress(ctx context.Context, email, addressID string) (*models.User, error) {
	return s.update(ctx, email, func(u *models.User) error {
		for _, a := range u.Addresses {
			if a.ID == addressID {
				u.SelectedAddressID = addressID
				return nil
			}
		}
		return ErrAddressNotFound
	})
}

// SuggestAddresses proxies the geocoder for address entry.
func (s *UserService) SuggestAddresses(ctx context.Context, query string) ([]geocode.Suggestion, error) {
	if s.geocoder == nil {
		return []geocode.Suggestion{}, nil
	}
	return s.geocoder.Suggest(ctx, query)
}

func (s *UserService) update(ctx context.Context, email string, apply func(*models.User) error) (*models.User, error) {
	user, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}
