package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"purepick/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteRepository opens the database at path and applies pending migrations.
func NewSQLiteRepository(path string, logger *zap.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection serializes writers, which sqlite needs anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	r := &SQLiteRepository{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		version := strings.TrimPrefix(file, "migrations/")
		if r.isApplied(version) {
			continue
		}

		r.logger.Info("Applying migration", zap.String("file", version))
		content, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", version, err)
		}

		tx, err := r.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) isApplied(version string) bool {
	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, version).Scan(&exists)
	return err == nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, email string) (*models.User, error) {
	var (
		u         models.User
		addresses string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT email, name, wallet_balance, addresses, selected_address_id, phone, gender
		FROM users WHERE email = ?`, email).
		Scan(&u.Email, &u.Name, &u.WalletBalance, &addresses, &u.SelectedAddressID, &u.Phone, &u.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", email, err)
	}
	if err := json.Unmarshal([]byte(addresses), &u.Addresses); err != nil {
		return nil, fmt.Errorf("decode addresses for %s: %w", email, err)
	}
	return &u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *models.User, passwordHash string) error {
	addresses, err := json.Marshal(nonNilAddresses(user.Addresses))
	if err != nil {
		return fmt.Errorf("encode addresses: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, wallet_balance, addresses, selected_address_id, phone, gender)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`,
		user.Email, user.Name, passwordHash, user.WalletBalance, string(addresses),
		user.SelectedAddressID, user.Phone, user.Gender)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", user.Email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", user.Email, ErrUserExists)
	}
	return nil
}

func (r *SQLiteRepository) SaveUser(ctx context.Context, user *models.User) error {
	addresses, err := json.Marshal(nonNilAddresses(user.Addresses))
	if err != nil {
		return fmt.Errorf("encode addresses: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = ?, addresses = ?, selected_address_id = ?, phone = ?, gender = ?
		WHERE email = ?`,
		user.Name, string(addresses), user.SelectedAddressID, user.Phone, user.Gender, user.Email)
	if err != nil {
		return fmt.Errorf("update user %s: %w", user.Email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", user.Email, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query password hash: %w", err)
	}
	return hash, nil
}

func (r *SQLiteRepository) LoadOrders(ctx context.Context, email string) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM orders WHERE user_email = ? ORDER BY seq DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("query orders for %s: %w", email, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var o models.Order
		if err := json.Unmarshal([]byte(data), &o); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *SQLiteRepository) SaveOrders(ctx context.Context, email string, orders []models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE user_email = ?`, email); err != nil {
		return fmt.Errorf("clear orders for %s: %w", email, err)
	}
	// oldest first so the newest order gets the highest seq
	for i := len(orders) - 1; i >= 0; i-- {
		if err := insertOrder(ctx, tx, email, orders[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) CommitCheckout(ctx context.Context, email string, expectedBalance, newBalance float64, order models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET wallet_balance = ? WHERE email = ? AND wallet_balance = ?`,
		newBalance, email, expectedBalance)
	if err != nil {
		return fmt.Errorf("update wallet for %s: %w", email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, email).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return ErrConflict
	}

	if err := insertOrder(ctx, tx, email, order); err != nil {
		return err
	}
	return tx.Commit()
}

func insertOrder(ctx context.Context, tx *sql.Tx, email string, order models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_email, data) VALUES (?, ?, ?)`,
		order.ID, email, string(data)); err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) LoadStoreSelection(ctx context.Context, email string) (string, error) {
	var storeID string
	err := r.db.QueryRowContext(ctx, `SELECT store_id FROM store_selections WHERE user_email = ?`, email).Scan(&storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query store selection: %w", err)
	}
	return storeID, nil
}

func (r *SQLiteRepository) SaveStoreSelection(ctx context.Context, email, storeID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO store_selections (user_email, store_id) VALUES (?, ?)
		ON CONFLICT(user_email) DO UPDATE SET store_id = excluded.store_id`, email, storeID)
	if err != nil {
		return fmt.Errorf("save store selection: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadWishlist(ctx context.Context, email, storeID string) ([]string, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT product_ids FROM wishlists WHERE user_email = ? AND store_id = ?`, email, storeID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query wishlist: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("decode wishlist: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) SaveWishlist(ctx context.Context, email, storeID string, productIDs []string) error {
	if len(productIDs) == 0 {
		_, err := r.db.ExecContext(ctx, `DELETE FROM wishlists WHERE user_email = ? AND store_id = ?`, email, storeID)
		return err
	}
	data, err := json.Marshal(productIDs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO wishlists (user_email, store_id, product_ids) VALUES (?, ?, ?)
		ON CONFLICT(user_email, store_id) DO UPDATE SET product_ids = excluded.product_ids`,
		email, storeID, string(data))
	if err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAnalysis(ctx context.Context, barcode string) (*models.ScannedProductDetails, error) {
	var (
		data      string
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT details, expires_at FROM analysis_cache WHERE barcode = ?`, barcode).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis cache: %w", err)
	}
	if expiresAt > 0 && time.Now().Unix() > expiresAt {
		return nil, ErrNotFound
	}

	var d models.ScannedProductDetails
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("decode cached analysis: %w", err)
	}
	d.Recommendations = nil
	return &d, nil
}

func (r *SQLiteRepository) PutAnalysis(ctx context.Context, barcode string, details *models.ScannedProductDetails, ttl time.Duration) error {
	data, err := json.Marshal(cloneDetails(details))
	if err != nil {
		return err
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_cache (barcode, details, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(barcode) DO UPDATE SET details = excluded.details, expires_at = excluded.expires_at`,
		barcode, string(data), expiresAt)
	if err != nil {
		return fmt.Errorf("save analysis cache: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func nonNilAddresses(a []models.Address) []models.Address {
	if a == nil {
		return []models.Address{}
	}
	return a
}
