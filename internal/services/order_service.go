package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"purepick/internal/models"
	"purepick/internal/repository"
	"purepick/internal/telemetry"
)

type OrderService struct {
	repo   repository.Repository
	carts  *CartService
	stores *StoreService
	policy LedgerPolicy
	logger *zap.Logger
	now    func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // user email -> checkout lock

	stats struct {
		sync.RWMutex
		totalOrders     int64
		failedCheckouts int64
		conflicts       int64
	}
}

func NewOrderService(repo repository.Repository, carts *CartService, stores *StoreService, policy LedgerPolicy, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		carts:  carts,
		stores: stores,
		policy: policy,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *OrderService) userLock(email string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[email]
	if !ok {
		l = &sync.Mutex{}
		s.locks[email] = l
	}
	return l
}

// Preview runs the checkout rules against the current cart without
// committing anything.
func (s *OrderService) Preview(ctx context.Context, email string, redeem bool) (*models.Order, error) {
	order, _, _, err := s.settle(ctx, email, redeem)
	return order, err
}

// Checkout turns the user's cart into an order. The wallet update and the
// order are written together; on any error nothing is written and the cart
// is kept. Only the ordered lines leave the cart.
func (s *OrderService) Checkout(ctx context.Context, email string, redeem bool) (*models.Order, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "services.Checkout")
	defer span.End()

	lock := s.userLock(email)
	lock.Lock()
	defer lock.Unlock()

	order, user, updated, err := s.settle(ctx, email, redeem)
	if err != nil {
		s.recordFailure(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	err = s.repo.CommitCheckout(ctx, email, user.WalletBalance, updated.WalletBalance, *order)
	if errors.Is(err, repository.ErrConflict) {
		s.logger.Warn("checkout lost wallet race", zap.String("user", email))
		err = ErrConcurrentCheckout
	}
	if err != nil {
		s.recordFailure(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	s.carts.Deduct(email, order.Items)

	s.stats.Lock()
	s.stats.totalOrders++
	s.stats.Unlock()

	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Float64("order.total", order.TotalAmount),
	)
	s.logger.Info("order placed",
		zap.String("user", email),
		zap.String("order_id", order.ID),
		zap.String("store", order.StoreID),
		zap.Float64("total", order.TotalAmount),
		zap.Float64("earned", order.RewardPointsEarned),
		zap.Float64("redeemed", order.RewardPointsRedeemed),
		zap.Float64("wallet", updated.WalletBalance))
	return order, nil
}

func (s *OrderService) settle(ctx context.Context, email string, redeem bool) (*models.Order, *models.User, *models.User, error) {
	user, err := s.repo.GetUser(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load user: %w", err)
	}

	cart := s.carts.Snapshot(email)
	store, err := s.stores.Current(ctx, email)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(cart.Items) > 0 && cart.StoreID != "" && cart.StoreID != store.ID {
		return nil, nil, nil, fmt.Errorf("cart belongs to store %s: %w", cart.StoreID, ErrCartNotEmpty)
	}

	order, updated, err := Settle(cart.Items, user, store, redeem, s.policy, s.now())
	if err != nil {
		return nil, nil, nil, err
	}
	return order, user, updated, nil
}

func (s *OrderService) recordFailure(err error) {
	s.stats.Lock()
	defer s.stats.Unlock()
	s.stats.failedCheckouts++
	if errors.Is(err, ErrConcurrentCheckout) {
		s.stats.conflicts++
	}
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, email string) ([]models.Order, error) {
	orders, err := s.repo.LoadOrders(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetStats() map[string]int64 {
	s.stats.RLock()
	defer s.stats.RUnlock()

	return map[string]int64{
		"total_orders":     s.stats.totalOrders,
		"failed_checkouts": s.stats.failedCheckouts,
		"wallet_conflicts": s.stats.conflicts,
	}
}
