package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"purepick/internal/catalog"
	"purepick/internal/geocode"
	"purepick/internal/models"
	"purepick/internal/repository"
)

type fixture struct {
	catalog   *catalog.Catalog
	repo      repository.Repository
	carts     *CartService
	stores    *StoreService
	users     *UserService
	orders    *OrderService
	wishlists *WishlistService
	products  *ProductService
}

func newFixture(t *testing.T, repo repository.Repository, geocoder Geocoder) *fixture {
	t.Helper()
	c, err := catalog.Load("")
	require.NoError(t, err)
	if repo == nil {
		repo = repository.NewMemoryRepository()
	}
	logger := zap.NewNop()
	carts := NewCartService(c)
	stores := NewStoreService(c, repo, carts, logger)
	return &fixture{
		catalog:   c,
		repo:      repo,
		carts:     carts,
		stores:    stores,
		users:     NewUserService(repo, geocoder, logger),
		orders:    NewOrderService(repo, carts, stores, DefaultPolicy(), logger),
		wishlists: NewWishlistService(repo, c),
		products:  NewProductService(c),
	}
}

// registerNearStore creates a user with a selected address next to the
// Indiranagar store and the given wallet balance.
func (f *fixture) registerNearStore(t *testing.T, email string, balance float64) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := f.users.Register(ctx, "Asha", email, "secret123")
	require.NoError(t, err)

	lat, lng := 12.9716, 77.6400
	user, err := f.users.AddAddress(ctx, email, models.AddAddressRequest{
		Nickname: "Home", FullAddress: "12th Main, Indiranagar", Lat: &lat, Lng: &lng,
	})
	require.NoError(t, err)

	if balance > 0 {
		require.NoError(t, f.repo.CommitCheckout(ctx, email, 0, balance, models.Order{ID: "seed-" + email}))
		user.WalletBalance = balance
	}
	return user
}

func TestCheckoutEndToEnd(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "asha@example.com"
	f.registerNearStore(t, email, 10)

	// Organic Bananas: 60 each, eco 88.
	_, err := f.carts.Add(email, "indiranagar", "p-001", 5)
	require.NoError(t, err)

	order, err := f.orders.Checkout(ctx, email, false)
	require.NoError(t, err)

	assert.Equal(t, 300.0, order.Subtotal)
	assert.Equal(t, 315.0, order.TotalAmount)
	assert.Equal(t, 0.05, order.RewardPercentage)
	assert.Equal(t, 15.0, order.RewardPointsEarned)
	assert.Equal(t, "indiranagar", order.StoreID)
	assert.Equal(t, "Home", order.DeliveryAddress.Nickname)

	user, err := f.users.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 25.0, user.WalletBalance)
	assert.True(t, f.carts.IsEmpty(email))

	orders, err := f.orders.ListOrders(ctx, email)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, order.ID, orders[0].ID)

	assert.Equal(t, int64(1), f.orders.GetStats()["total_orders"])
}

func TestCheckoutWithRedemption(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "ravi@example.com"
	f.registerNearStore(t, email, 100)

	_, err := f.carts.Add(email, "indiranagar", "p-001", 5)
	require.NoError(t, err)

	preview, err := f.orders.Preview(ctx, email, true)
	require.NoError(t, err)
	assert.Equal(t, 24.0, preview.RewardPointsRedeemed)
	assert.False(t, f.carts.IsEmpty(email), "preview keeps the cart")

	order, err := f.orders.Checkout(ctx, email, true)
	require.NoError(t, err)
	assert.Equal(t, 24.0, order.RewardPointsRedeemed)
	assert.Equal(t, 291.0, order.TotalAmount)

	user, err := f.users.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 91.0, user.WalletBalance)
}

func TestCheckoutOutOfRangeWritesNothing(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "far@example.com"
	_, err := f.users.Register(ctx, "Far", email, "secret123")
	require.NoError(t, err)

	// Mysuru is roughly 80 miles from every store.
	lat, lng := 12.2958, 76.6394
	_, err = f.users.AddAddress(ctx, email, models.AddAddressRequest{
		Nickname: "Mysuru", FullAddress: "Mysuru", Lat: &lat, Lng: &lng,
	})
	require.NoError(t, err)

	_, err = f.carts.Add(email, "indiranagar", "p-001", 2)
	require.NoError(t, err)

	_, err = f.orders.Checkout(ctx, email, true)
	assert.ErrorIs(t, err, ErrOutOfDeliveryRange)

	user, err := f.users.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 0.0, user.WalletBalance)

	orders, err := f.orders.ListOrders(ctx, email)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.False(t, f.carts.IsEmpty(email))
	assert.Equal(t, int64(1), f.orders.GetStats()["failed_checkouts"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.registerNearStore(t, "empty@example.com", 0)

	_, err := f.orders.Checkout(context.Background(), "empty@example.com", false)
	var ce *CheckoutError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrEmptyCart, ce.Reason)
}

func TestCheckoutUnknownUser(t *testing.T) {
	f := newFixture(t, nil, nil)
	_, err := f.orders.Checkout(context.Background(), "ghost@example.com", false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOrderIsImmutableAfterCartChanges(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "imm@example.com"
	f.registerNearStore(t, email, 0)

	_, err := f.carts.Add(email, "indiranagar", "p-002", 2)
	require.NoError(t, err)
	order, err := f.orders.Checkout(ctx, email, false)
	require.NoError(t, err)

	_, err = f.carts.Add(email, "indiranagar", "p-002", 7)
	require.NoError(t, err)
	_, err = f.users.UpdateProfile(ctx, email, models.UpdateProfileRequest{Name: strPtr("Renamed")})
	require.NoError(t, err)

	orders, err := f.orders.ListOrders(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
	assert.Equal(t, order.TotalAmount, orders[0].TotalAmount)
}

func TestConcurrentCheckoutsPlaceOneOrder(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "race@example.com"
	f.registerNearStore(t, email, 50)

	_, err := f.carts.Add(email, "indiranagar", "p-001", 1)
	require.NoError(t, err)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orders.Checkout(ctx, email, true); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrEmptyCart)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	// 60 subtotal: redeem 4.80, earn 3.00.
	user, err := f.users.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 48.2, user.WalletBalance)
}

// conflictRepo simulates another process moving the wallet between the read
// and the commit.
type conflictRepo struct {
	repository.Repository
}

func (conflictRepo) CommitCheckout(context.Context, string, float64, float64, models.Order) error {
	return repository.ErrConflict
}

func TestCheckoutConflictKeepsCart(t *testing.T) {
	mem := repository.NewMemoryRepository()
	f := newFixture(t, mem, nil)
	email := "cas@example.com"
	f.registerNearStore(t, email, 0)
	_, err := f.carts.Add(email, "indiranagar", "p-001", 1)
	require.NoError(t, err)

	orders := NewOrderService(conflictRepo{mem}, f.carts, f.stores, DefaultPolicy(), zap.NewNop())
	_, err = orders.Checkout(context.Background(), email, false)
	assert.ErrorIs(t, err, ErrConcurrentCheckout)
	assert.False(t, f.carts.IsEmpty(email))
	assert.Equal(t, int64(1), orders.GetStats()["wallet_conflicts"])
}

// addDuringCommitRepo lets the user keep shopping while the order is being
// written.
type addDuringCommitRepo struct {
	repository.Repository
	during func()
}

func (r addDuringCommitRepo) CommitCheckout(ctx context.Context, email string, expected, balance float64, order models.Order) error {
	r.during()
	return r.Repository.CommitCheckout(ctx, email, expected, balance, order)
}

func TestCheckoutKeepsItemsAddedMidCommit(t *testing.T) {
	mem := repository.NewMemoryRepository()
	f := newFixture(t, mem, nil)
	email := "late@example.com"
	f.registerNearStore(t, email, 0)
	_, err := f.carts.Add(email, "indiranagar", "p-001", 2)
	require.NoError(t, err)

	repo := addDuringCommitRepo{Repository: mem, during: func() {
		_, err := f.carts.Add(email, "indiranagar", "p-003", 1)
		require.NoError(t, err)
		_, err = f.carts.Add(email, "indiranagar", "p-001", 1)
		require.NoError(t, err)
	}}
	orders := NewOrderService(repo, f.carts, f.stores, DefaultPolicy(), zap.NewNop())

	order, err := orders.Checkout(context.Background(), email, false)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	cart := f.carts.Get(email)
	require.Len(t, cart.Items, 2)
	quantities := map[string]int{}
	for _, item := range cart.Items {
		quantities[item.ID] = item.Quantity
	}
	assert.Equal(t, map[string]int{"p-001": 1, "p-003": 1}, quantities)
}

func TestCartDeduct(t *testing.T) {
	f := newFixture(t, nil, nil)
	email := "deduct@example.com"
	_, err := f.carts.Add(email, "indiranagar", "p-001", 3)
	require.NoError(t, err)

	f.carts.Deduct(email, []models.CartItem{{Product: models.Product{ID: "p-001"}, Quantity: 2}})
	assert.Equal(t, 1, f.carts.Get(email).ItemCount)

	f.carts.Deduct(email, []models.CartItem{{Product: models.Product{ID: "p-001"}, Quantity: 1}})
	assert.True(t, f.carts.IsEmpty(email))

	f.carts.Deduct("nobody@example.com", nil)
	assert.True(t, f.carts.IsEmpty("nobody@example.com"))
}

func TestCartAddUpdateRemove(t *testing.T) {
	f := newFixture(t, nil, nil)
	email := "cart@example.com"

	summary, err := f.carts.Add(email, "indiranagar", "p-001", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, 120.0, summary.Subtotal)

	summary, err = f.carts.Add(email, "indiranagar", "p-001", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Items[0].Quantity)

	summary, err = f.carts.UpdateQuantity(email, "p-001", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.ItemCount)

	_, err = f.carts.UpdateQuantity(email, "p-999", 1)
	assert.ErrorIs(t, err, ErrItemNotInCart)

	summary, err = f.carts.Remove(email, "p-001")
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.True(t, f.carts.IsEmpty(email))

	_, err = f.carts.Add(email, "indiranagar", "p-999", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartRejectsSecondStore(t *testing.T) {
	f := newFixture(t, nil, nil)
	email := "mixed@example.com"

	_, err := f.carts.Add(email, "indiranagar", "p-001", 1)
	require.NoError(t, err)
	_, err = f.carts.Add(email, "koramangala", "p-001", 1)
	assert.ErrorIs(t, err, ErrCartNotEmpty)
}

func TestCartSnapshotIsACopy(t *testing.T) {
	f := newFixture(t, nil, nil)
	email := "snap@example.com"
	_, err := f.carts.Add(email, "indiranagar", "p-001", 1)
	require.NoError(t, err)

	snap := f.carts.Snapshot(email)
	snap.Items[0].Quantity = 40

	assert.Equal(t, 1, f.carts.Get(email).Items[0].Quantity)
}

func TestStoreSelection(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "store@example.com"

	current, err := f.stores.Current(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "indiranagar", current.ID)

	_, err = f.carts.Add(email, "indiranagar", "p-001", 1)
	require.NoError(t, err)

	_, err = f.stores.Select(ctx, email, "koramangala", false)
	assert.ErrorIs(t, err, ErrCartNotEmpty)
	assert.False(t, f.carts.IsEmpty(email))

	store, err := f.stores.Select(ctx, email, "koramangala", true)
	require.NoError(t, err)
	assert.Equal(t, "koramangala", store.ID)
	assert.True(t, f.carts.IsEmpty(email))

	current, err = f.stores.Current(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "koramangala", current.ID)

	_, err = f.stores.Select(ctx, email, "nowhere", true)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestStoreReselectKeepsCart(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "same@example.com"
	_, err := f.carts.Add(email, "indiranagar", "p-001", 1)
	require.NoError(t, err)

	_, err = f.stores.Select(ctx, email, "indiranagar", false)
	require.NoError(t, err)
	assert.False(t, f.carts.IsEmpty(email))
}

func TestNearestStore(t *testing.T) {
	f := newFixture(t, nil, nil)

	store, dist := f.stores.Nearest(12.9698, 77.7480)
	assert.Equal(t, "whitefield", store.ID)
	assert.Less(t, dist, 1.0)

	store, _ = f.stores.Nearest(12.9350, 77.6240)
	assert.Equal(t, "koramangala", store.ID)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	user, err := f.users.Register(ctx, " Asha ", " Asha@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, 0.0, user.WalletBalance)

	_, err = f.users.Register(ctx, "Other", "asha@example.com", "different")
	assert.ErrorIs(t, err, ErrUserExists)

	logged, err := f.users.Login(ctx, "ASHA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", logged.Email)

	_, err = f.users.Login(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.users.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	_, err := f.users.Register(ctx, "Asha", "asha@example.com", "secret123")
	require.NoError(t, err)

	user, err := f.users.UpdateProfile(ctx, "asha@example.com", models.UpdateProfileRequest{
		Phone: strPtr("+91 98450 00000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "+91 98450 00000", user.Phone)

	_, err = f.users.UpdateProfile(ctx, "asha@example.com", models.UpdateProfileRequest{Name: strPtr("  ")})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = f.users.UpdateProfile(ctx, "ghost@example.com", models.UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type stubGeocoder struct {
	suggestions []geocode.Suggestion
	err         error
	queries     []string
}

func (g *stubGeocoder) Suggest(_ context.Context, query string) ([]geocode.Suggestion, error) {
	g.queries = append(g.queries, query)
	return g.suggestions, g.err
}

func TestAddAddressGeocodesMissingCoordinates(t *testing.T) {
	geo := &stubGeocoder{suggestions: []geocode.Suggestion{{Label: "Indiranagar", Lat: 12.97, Lng: 77.64}}}
	f := newFixture(t, nil, geo)
	ctx := context.Background()
	_, err := f.users.Register(ctx, "Asha", "asha@example.com", "secret123")
	require.NoError(t, err)

	user, err := f.users.AddAddress(ctx, "asha@example.com", models.AddAddressRequest{
		Nickname: "Home", FullAddress: "Indiranagar, Bengaluru",
	})
	require.NoError(t, err)

	require.Len(t, user.Addresses, 1)
	addr := user.Addresses[0]
	assert.NotEmpty(t, addr.ID)
	assert.Equal(t, addr.ID, user.SelectedAddressID)
	require.True(t, addr.HasCoordinates())
	assert.Equal(t, 12.97, *addr.Lat)
	assert.Equal(t, []string{"Indiranagar, Bengaluru"}, geo.queries)
}

func TestAddAddressKeepsAddressWhenGeocodingFails(t *testing.T) {
	geo := &stubGeocoder{err: geocode.ErrRateLimited}
	f := newFixture(t, nil, geo)
	ctx := context.Background()
	_, err := f.users.Register(ctx, "Asha", "asha@example.com", "secret123")
	require.NoError(t, err)

	user, err := f.users.AddAddress(ctx, "asha@example.com", models.AddAddressRequest{
		Nickname: "Office", FullAddress: "Somewhere",
	})
	require.NoError(t, err)
	require.Len(t, user.Addresses, 1)
	assert.False(t, user.Addresses[0].HasCoordinates())

	_, err = f.orders.Checkout(ctx, "asha@example.com", false)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.carts.Add("asha@example.com", "indiranagar", "p-001", 1)
	require.NoError(t, err)
	_, err = f.orders.Checkout(ctx, "asha@example.com", false)
	assert.ErrorIs(t, err, ErrMissingCoordinates)
}

func TestAddAddressWithCoordinatesSkipsGeocoder(t *testing.T) {
	geo := &stubGeocoder{}
	f := newFixture(t, nil, geo)
	f.registerNearStore(t, "asha@example.com", 0)
	assert.Empty(t, geo.queries)
}

func TestRemoveAndSelectAddress(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "addr@example.com"
	user := f.registerNearStore(t, email, 0)
	first := user.Addresses[0].ID

	lat, lng := 12.93, 77.62
	user, err := f.users.AddAddress(ctx, email, models.AddAddressRequest{
		Nickname: "Office", FullAddress: "Koramangala", Lat: &lat, Lng: &lng,
	})
	require.NoError(t, err)
	second := user.Addresses[1].ID
	assert.Equal(t, second, user.SelectedAddressID)

	user, err = f.users.SelectAddress(ctx, email, first)
	require.NoError(t, err)
	assert.Equal(t, first, user.SelectedAddressID)

	_, err = f.users.SelectAddress(ctx, email, "missing")
	assert.ErrorIs(t, err, ErrAddressNotFound)

	user, err = f.users.RemoveAddress(ctx, email, first)
	require.NoError(t, err)
	assert.Len(t, user.Addresses, 1)
	assert.Empty(t, user.SelectedAddressID)

	_, err = f.users.RemoveAddress(ctx, email, first)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestAddressEditsNeverTouchWallet(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "wallet@example.com"
	f.registerNearStore(t, email, 42)

	_, err := f.users.UpdateProfile(ctx, email, models.UpdateProfileRequest{Gender: strPtr("f")})
	require.NoError(t, err)

	user, err := f.users.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 42.0, user.WalletBalance)
}

func TestSuggestAddressesWithoutGeocoder(t *testing.T) {
	f := newFixture(t, nil, nil)
	got, err := f.users.SuggestAddresses(context.Background(), "MG Road")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWishlist(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	email := "wish@example.com"

	items, err := f.wishlists.Add(ctx, email, "indiranagar", "p-001")
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = f.wishlists.Add(ctx, email, "indiranagar", "p-001")
	require.NoError(t, err)
	assert.Len(t, items, 1, "adding twice is a no-op")

	_, err = f.wishlists.Add(ctx, email, "indiranagar", "p-002")
	require.NoError(t, err)

	other, err := f.wishlists.List(ctx, email, "koramangala")
	require.NoError(t, err)
	assert.Empty(t, other, "wishlists are per store")

	items, err = f.wishlists.Remove(ctx, email, "indiranagar", "p-001")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p-002", items[0].ID)

	_, err = f.wishlists.Add(ctx, email, "indiranagar", "p-999")
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, f.wishlists.Clear(ctx, email, "indiranagar"))
	items, err = f.wishlists.List(ctx, email, "indiranagar")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWishlistUsesStorePrices(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	items, err := f.wishlists.Add(ctx, "wish@example.com", "koramangala", "p-001")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 65.0, items[0].Price)
}

func TestProductPagination(t *testing.T) {
	f := newFixture(t, nil, nil)

	page, total, err := f.products.GetAllProducts("indiranagar", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 24, total)
	assert.Len(t, page, 10)

	page, _, err = f.products.GetAllProducts("indiranagar", 3, 10)
	require.NoError(t, err)
	assert.Len(t, page, 4)

	page, _, err = f.products.GetAllProducts("indiranagar", 9, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, _, err = f.products.GetAllProducts("indiranagar", 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 10)

	_, _, err = f.products.GetAllProducts("nowhere", 1, 10)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestProductSearch(t *testing.T) {
	f := newFixture(t, nil, nil)

	got, err := f.products.SearchProducts("indiranagar", "banana", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.products.SearchProducts("indiranagar", "zzz-nothing", "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func strPtr(s string) *string {
	return &s
}
