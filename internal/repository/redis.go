package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"purepick/internal/models"
)

// RedisRepository stores each user as a hash, orders as a newest-first list
// and everything else as plain string keys.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository connects using a redis:// URL.
func NewRedisRepository(ctx context.Context, redisURL string) (*RedisRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisRepositoryWithClient(client), nil
}

func NewRedisRepositoryWithClient(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, prefix: "purepick"}
}

func (r *RedisRepository) userKey(email string) string {
	return fmt.Sprintf("%s:user:%s", r.prefix, email)
}

func (r *RedisRepository) ordersKey(email string) string {
	return fmt.Sprintf("%s:orders:%s", r.prefix, email)
}

func (r *RedisRepository) storeKey(email string) string {
	return fmt.Sprintf("%s:store:%s", r.prefix, email)
}

func (r *RedisRepository) wishlistKey(email, storeID string) string {
	return fmt.Sprintf("%s:wishlist:%s:%s", r.prefix, email, storeID)
}

func (r *RedisRepository) analysisKey(barcode string) string {
	return fmt.Sprintf("%s:analysis:%s", r.prefix, barcode)
}

const (
	fieldProfile  = "profile"
	fieldWallet   = "wallet"
	fieldPassword = "password"
)

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (r *RedisRepository) GetUser(ctx context.Context, email string) (*models.User, error) {
	fields, err := r.client.HMGet(ctx, r.userKey(email), fieldProfile, fieldWallet).Result()
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", email, err)
	}
	profile, ok := fields[0].(string)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}

	var u models.User
	if err := json.Unmarshal([]byte(profile), &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", email, err)
	}
	if wallet, ok := fields[1].(string); ok {
		u.WalletBalance, err = strconv.ParseFloat(wallet, 64)
		if err != nil {
			return nil, fmt.Errorf("decode wallet for %s: %w", email, err)
		}
	}
	return &u, nil
}

func (r *RedisRepository) CreateUser(ctx context.Context, user *models.User, passwordHash string) error {
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	key := r.userKey(user.Email)
	created, err := r.client.HSetNX(ctx, key, fieldProfile, profile).Result()
	if err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	if !created {
		return fmt.Errorf("user %s: %w", user.Email, ErrUserExists)
	}
	return r.client.HSet(ctx, key,
		fieldWallet, formatMoney(user.WalletBalance),
		fieldPassword, passwordHash,
	).Err()
}

func (r *RedisRepository) SaveUser(ctx context.Context, user *models.User) error {
	key := r.userKey(user.Email)
	exists, err := r.client.HExists(ctx, key, fieldProfile).Result()
	if err != nil {
		return fmt.Errorf("save user %s: %w", user.Email, err)
	}
	if !exists {
		return fmt.Errorf("user %s: %w", user.Email, ErrNotFound)
	}

	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return r.client.HSet(ctx, key, fieldProfile, profile).Err()
}

func (r *RedisRepository) PasswordHash(ctx context.Context, email string) (string, error) {
	hash, err := r.client.HGet(ctx, r.userKey(email), fieldPassword).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

func (r *RedisRepository) LoadOrders(ctx context.Context, email string) ([]models.Order, error) {
	items, err := r.client.LRange(ctx, r.ordersKey(email), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load orders for %s: %w", email, err)
	}
	orders := make([]models.Order, 0, len(items))
	for _, item := range items {
		var o models.Order
		if err := json.Unmarshal([]byte(item), &o); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *RedisRepository) SaveOrders(ctx context.Context, email string, orders []models.Order) error {
	encoded := make([]interface{}, len(orders))
	for i, o := range orders {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encode order %s: %w", o.ID, err)
		}
		encoded[i] = data
	}

	key := r.ordersKey(email)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(encoded) > 0 {
			pipe.RPush(ctx, key, encoded...)
		}
		return nil
	})
	return err
}

func (r *RedisRepository) CommitCheckout(ctx context.Context, email string, expectedBalance, newBalance float64, order models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.ID, err)
	}
	userKey := r.userKey(email)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, userKey, fieldWallet).Result()
		if err == redis.Nil {
			return fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		if err != nil {
			return err
		}
		balance, err := strconv.ParseFloat(current, 64)
		if err != nil {
			return fmt.Errorf("decode wallet for %s: %w", email, err)
		}
		if balance != expectedBalance {
			return ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, userKey, fieldWallet, formatMoney(newBalance))
			pipe.LPush(ctx, r.ordersKey(email), data)
			return nil
		})
		return err
	}, userKey)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (r *RedisRepository) LoadStoreSelection(ctx context.Context, email string) (string, error) {
	storeID, err := r.client.Get(ctx, r.storeKey(email)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load store selection: %w", err)
	}
	return storeID, nil
}

func (r *RedisRepository) SaveStoreSelection(ctx context.Context, email, storeID string) error {
	return r.client.Set(ctx, r.storeKey(email), storeID, 0).Err()
}

func (r *RedisRepository) LoadWishlist(ctx context.Context, email, storeID string) ([]string, error) {
	data, err := r.client.Get(ctx, r.wishlistKey(email, storeID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode wishlist: %w", err)
	}
	return ids, nil
}

func (r *RedisRepository) SaveWishlist(ctx context.Context, email, storeID string, productIDs []string) error {
	key := r.wishlistKey(email, storeID)
	if len(productIDs) == 0 {
		return r.client.Del(ctx, key).Err()
	}
	data, err := json.Marshal(productIDs)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *RedisRepository) GetAnalysis(ctx context.Context, barcode string) (*models.ScannedProductDetails, error) {
	data, err := r.client.Get(ctx, r.analysisKey(barcode)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cached analysis: %w", err)
	}
	var d models.ScannedProductDetails
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode cached analysis: %w", err)
	}
	d.Recommendations = nil
	return &d, nil
}

func (r *RedisRepository) PutAnalysis(ctx context.Context, barcode string, details *models.ScannedProductDetails, ttl time.Duration) error {
	data, err := json.Marshal(cloneDetails(details))
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.analysisKey(barcode), data, ttl).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
