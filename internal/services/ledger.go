package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"purepick/internal/models"
)

// LedgerPolicy holds the configurable money rules of a checkout.
type LedgerPolicy struct {
	DeliveryFee      float64
	MaxDeliveryMiles float64
	RedemptionCap    float64
}

func DefaultPolicy() LedgerPolicy {
	return LedgerPolicy{
		DeliveryFee:      15,
		MaxDeliveryMiles: 10,
		RedemptionCap:    0.08,
	}
}

// rewardTiers is evaluated top down; the first threshold reached wins.
var rewardTiers = []struct {
	minScore float64
	rate     float64
}{
	{90, 0.06},
	{80, 0.05},
	{60, 0.04},
	{50, 0.03},
	{40, 0.025},
	{20, 0.02},
}

// RoundCents rounds a money amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func Subtotal(items []models.CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return RoundCents(total)
}

func ItemCount(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// AverageEcoScore is the quantity-weighted mean ecological score, 0 for an empty cart.
func AverageEcoScore(items []models.CartItem) float64 {
	var weighted, qty float64
	for _, it := range items {
		weighted += float64(it.EcologicalScore * it.Quantity)
		qty += float64(it.Quantity)
	}
	if qty == 0 {
		return 0
	}
	return weighted / qty
}

// RewardPercentage maps an average eco score to its cash-back rate.
func RewardPercentage(avgEco float64) float64 {
	for _, tier := range rewardTiers {
		if avgEco >= tier.minScore {
			return tier.rate
		}
	}
	return 0
}

// RedeemableAmount is the most wallet money one order may use.
func RedeemableAmount(balance, subtotal, capRate float64) float64 {
	return RoundCents(math.Max(0, math.Min(balance, subtotal*capRate)))
}

// Settle validates a checkout and computes the order and the user's new
// wallet balance. It is pure: nothing is persisted and the inputs are not
// modified. The returned order holds deep copies of the items and address.
func Settle(items []models.CartItem, user *models.User, store models.Store, redeem bool, policy LedgerPolicy, now time.Time) (*models.Order, *models.User, error) {
	if len(items) == 0 {
		return nil, nil, checkoutError(ErrEmptyCart, "")
	}
	if user.SelectedAddressID == "" {
		return nil, nil, checkoutError(ErrNoAddress, "")
	}
	address, ok := user.SelectedAddress()
	if !ok {
		return nil, nil, checkoutError(ErrAddressNotFound, user.SelectedAddressID)
	}
	if !address.HasCoordinates() {
		return nil, nil, checkoutError(ErrMissingCoordinates, address.Nickname)
	}
	distance := Haversine(store.Latitude, store.Longitude, *address.Lat, *address.Lng)
	if distance > policy.MaxDeliveryMiles {
		return nil, nil, checkoutError(ErrOutOfDeliveryRange,
			fmt.Sprintf("%.1f miles from %s, limit is %.0f", distance, store.Name, policy.MaxDeliveryMiles))
	}

	subtotal := Subtotal(items)
	avgEco := AverageEcoScore(items)
	rate := RewardPercentage(avgEco)
	earned := RoundCents(subtotal * rate)

	var redeemed float64
	if redeem {
		redeemed = RedeemableAmount(user.WalletBalance, subtotal, policy.RedemptionCap)
	}

	order := &models.Order{
		ID:                   newOrderID(now),
		Date:                 now.UTC(),
		Items:                models.CloneItems(items),
		Subtotal:             subtotal,
		DeliveryFee:          policy.DeliveryFee,
		TotalAmount:          RoundCents(subtotal + policy.DeliveryFee - redeemed),
		AvgEcoScore:          math.Round(avgEco*100) / 100,
		RewardPercentage:     rate,
		RewardPointsEarned:   earned,
		RewardPointsRedeemed: redeemed,
		StoreID:              store.ID,
		StoreName:            store.Name,
		DeliveryAddress:      address.Clone(),
	}

	updated := user.Clone()
	updated.WalletBalance = RoundCents(user.WalletBalance - redeemed + earned)
	return order, updated, nil
}

func newOrderID(now time.Time) string {
	return fmt.Sprintf("order_%d_%s", now.UnixNano(), uuid.NewString()[:8])
}
