package models

type Address struct {
	ID          string   `json:"id"`
	Nickname    string   `json:"nickname"`
	FullAddress string   `json:"full_address"`
	Details     string   `json:"details,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

// HasCoordinates reports whether both lat and lng are known.
func (a Address) HasCoordinates() bool {
	return a.Lat != nil && a.Lng != nil
}

// Clone returns a copy that shares no pointers with a.
func (a Address) Clone() Address {
	c := a
	if a.Lat != nil {
		lat := *a.Lat
		c.Lat = &lat
	}
	if a.Lng != nil {
		lng := *a.Lng
		c.Lng = &lng
	}
	return c
}

type User struct {
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	WalletBalance     float64   `json:"wallet_balance"`
	Addresses         []Address `json:"addresses"`
	SelectedAddressID string    `json:"selected_address_id,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Gender            string    `json:"gender,omitempty"`
}

// SelectedAddress returns the selected address, if any.
func (u *User) SelectedAddress() (Address, bool) {
	if u.SelectedAddressID == "" {
		return Address{}, false
	}
	for _, a := range u.Addresses {
		if a.ID == u.SelectedAddressID {
			return a, true
		}
	}
	return Address{}, false
}

// Clone deep-copies the user so callers can mutate the result freely.
func (u *User) Clone() *User {
	c := *u
	c.Addresses = make([]Address, len(u.Addresses))
	for i, a := range u.Addresses {
		c.Addresses[i] = a.Clone()
	}
	return &c
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Gender *string `json:"gender"`
}

type AddAddressRequest struct {
	Nickname    string   `json:"nickname" binding:"required"`
	FullAddress string   `json:"full_address" binding:"required"`
	Details     string   `json:"details"`
	Lat         *float64 `json:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" binding:"omitempty,gte=-180,lte=180"`
}

type SelectStoreRequest struct {
	StoreID string `json:"store_id" binding:"required"`
	Confirm bool   `json:"confirm"`
}

type WishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}
