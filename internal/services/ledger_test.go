package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purepick/internal/models"
)

var testStore = models.Store{ID: "indiranagar", Name: "PurePick Indiranagar", Latitude: 12.9719, Longitude: 77.6412}

func item(id string, price float64, eco, qty int) models.CartItem {
	return models.CartItem{
		Product:  models.Product{ID: id, Name: id, Price: price, EcologicalScore: eco, NutritionalScore: models.IntPtr(50)},
		Quantity: qty,
	}
}

func userAt(lat, lng float64, balance float64) *models.User {
	return &models.User{
		Name:          "Asha",
		Email:         "asha@example.com",
		WalletBalance: balance,
		Addresses: []models.Address{
			{ID: "home", Nickname: "Home", FullAddress: "12th Main, Indiranagar", Lat: &lat, Lng: &lng},
		},
		SelectedAddressID: "home",
	}
}

func TestRewardPercentage(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{100, 0.06},
		{90, 0.06},
		{89.99, 0.05},
		{80, 0.05},
		{60, 0.04},
		{59, 0.03},
		{50, 0.03},
		{40, 0.025},
		{20, 0.02},
		{19, 0},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RewardPercentage(tt.score), "score %v", tt.score)
	}
}

func TestRedeemableAmount(t *testing.T) {
	assert.Equal(t, 80.0, RedeemableAmount(200, 1000, 0.08))
	assert.Equal(t, 30.0, RedeemableAmount(30, 1000, 0.08))
	assert.Equal(t, 0.0, RedeemableAmount(0, 1000, 0.08))
	assert.Equal(t, 0.0, RedeemableAmount(-5, 1000, 0.08))
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(12.97, 77.64, 12.97, 77.64), 1e-9)
	// One degree of latitude is about 69.1 miles.
	assert.InDelta(t, 69.1, Haversine(12, 77, 13, 77), 0.1)
}

func TestAverageEcoScoreIsQuantityWeighted(t *testing.T) {
	items := []models.CartItem{item("a", 10, 90, 3), item("b", 10, 50, 1)}
	assert.InDelta(t, 80, AverageEcoScore(items), 1e-9)
	assert.Equal(t, 0.0, AverageEcoScore(nil))
}

func TestSettleEarnsRewardWithoutRedemption(t *testing.T) {
	items := []models.CartItem{item("a", 250, 85, 2)}
	user := userAt(12.9719, 77.6412, 10)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	order, updated, err := Settle(items, user, testStore, false, DefaultPolicy(), now)
	require.NoError(t, err)

	assert.Equal(t, 500.0, order.Subtotal)
	assert.Equal(t, 15.0, order.DeliveryFee)
	assert.Equal(t, 515.0, order.TotalAmount)
	assert.Equal(t, 0.05, order.RewardPercentage)
	assert.Equal(t, 25.0, order.RewardPointsEarned)
	assert.Equal(t, 0.0, order.RewardPointsRedeemed)
	assert.Equal(t, 35.0, updated.WalletBalance)
	assert.Equal(t, 10.0, user.WalletBalance, "input user is not modified")
	assert.Equal(t, now, order.Date)
	assert.Equal(t, "indiranagar", order.StoreID)
	assert.Contains(t, order.ID, "order_")
}

func TestSettleRedemptionIsCapped(t *testing.T) {
	items := []models.CartItem{item("a", 1000, 10, 1)}
	user := userAt(12.9719, 77.6412, 200)

	order, updated, err := Settle(items, user, testStore, true, DefaultPolicy(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 80.0, order.RewardPointsRedeemed)
	assert.Equal(t, 0.0, order.RewardPointsEarned)
	assert.Equal(t, 935.0, order.TotalAmount)
	assert.Equal(t, 120.0, updated.WalletBalance)
}

func TestSettleRedeemsWholeSmallBalance(t *testing.T) {
	items := []models.CartItem{item("a", 500, 95, 1)}
	user := userAt(12.9719, 77.6412, 12.5)

	order, updated, err := Settle(items, user, testStore, true, DefaultPolicy(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 12.5, order.RewardPointsRedeemed)
	assert.Equal(t, 30.0, order.RewardPointsEarned)
	assert.Equal(t, 502.5, order.TotalAmount)
	assert.Equal(t, 30.0, updated.WalletBalance)
}

func TestSettlePreconditions(t *testing.T) {
	near := func() *models.User { return userAt(12.9719, 77.6412, 0) }
	items := []models.CartItem{item("a", 10, 50, 1)}

	noAddress := near()
	noAddress.SelectedAddressID = ""

	dangling := near()
	dangling.SelectedAddressID = "gone"

	noCoords := near()
	noCoords.Addresses[0].Lat = nil

	far := userAt(13.3, 77.6412, 0) // about 22 miles north

	tests := []struct {
		name  string
		items []models.CartItem
		user  *models.User
		want  error
	}{
		{"empty cart", nil, near(), ErrEmptyCart},
		{"empty cart wins over missing address", nil, noAddress, ErrEmptyCart},
		{"no address", items, noAddress, ErrNoAddress},
		{"dangling selection", items, dangling, ErrAddressNotFound},
		{"no coordinates", items, noCoords, ErrMissingCoordinates},
		{"out of range", items, far, ErrOutOfDeliveryRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, updated, err := Settle(tt.items, tt.user, testStore, false, DefaultPolicy(), time.Now())
			require.Error(t, err)
			assert.Nil(t, order)
			assert.Nil(t, updated)
			assert.ErrorIs(t, err, tt.want)

			var ce *CheckoutError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestSettleOrderIsDetachedFromInputs(t *testing.T) {
	items := []models.CartItem{item("a", 40, 70, 2)}
	user := userAt(12.9719, 77.6412, 0)

	order, _, err := Settle(items, user, testStore, false, DefaultPolicy(), time.Now())
	require.NoError(t, err)

	items[0].Quantity = 99
	items[0].Price = 1
	*items[0].NutritionalScore = 1
	*user.Addresses[0].Lat = 0
	user.Addresses[0].FullAddress = "moved"

	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, 40.0, order.Items[0].Price)
	assert.Equal(t, 50, *order.Items[0].NutritionalScore)
	assert.Equal(t, 12.9719, *order.DeliveryAddress.Lat)
	assert.Equal(t, "12th Main, Indiranagar", order.DeliveryAddress.FullAddress)
}

func TestSettleRoundsToCents(t *testing.T) {
	items := []models.CartItem{item("a", 33.33, 20, 3)}
	user := userAt(12.9719, 77.6412, 0)

	order, updated, err := Settle(items, user, testStore, false, DefaultPolicy(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 99.99, order.Subtotal)
	assert.Equal(t, 2.0, order.RewardPointsEarned)
	assert.Equal(t, 114.99, order.TotalAmount)
	assert.Equal(t, 2.0, updated.WalletBalance)
}
