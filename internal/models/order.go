package models

import "time"

// Order is an immutable record of a completed checkout. Items and the delivery
// address are copies, so later catalog or profile edits never change history.
type Order struct {
	ID                   string     `json:"id"`
	Date                 time.Time  `json:"date"`
	Items                []CartItem `json:"items"`
	Subtotal             float64    `json:"subtotal"`
	DeliveryFee          float64    `json:"delivery_fee"`
	TotalAmount          float64    `json:"total_amount"`
	AvgEcoScore          float64    `json:"avg_eco_score"`
	RewardPercentage     float64    `json:"reward_percentage"`
	RewardPointsEarned   float64    `json:"reward_points_earned"`
	RewardPointsRedeemed float64    `json:"reward_points_redeemed"`
	StoreID              string     `json:"store_id"`
	StoreName            string     `json:"store_name"`
	DeliveryAddress      Address    `json:"delivery_address"`
}

type CheckoutRequest struct {
	RedeemWallet bool `json:"redeem_wallet"`
}
