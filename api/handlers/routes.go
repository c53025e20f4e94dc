package handlers

import "github.com/gin-gonic/gin"

// Handlers groups every API handler so the router and tests share one route table.
type Handlers struct {
	Product  *ProductHandler
	Store    *StoreHandler
	Cart     *CartHandler
	Order    *OrderHandler
	User     *UserHandler
	Scan     *ScanHandler
	Wishlist *WishlistHandler
}

// Register mounts the API routes on the /api group.
func (h *Handlers) Register(api *gin.RouterGroup) {
	// Store routes
	stores := api.Group("/stores")
	{
		stores.GET("", h.Store.ListStores)
		stores.GET("/nearest", h.Store.NearestStore)
		stores.GET("/current", h.Store.CurrentStore)
		stores.PUT("/current", h.Store.SelectStore)
	}

	// Product routes
	products := api.Group("/products")
	{
		products.GET("", h.Product.GetAllProducts)
		products.GET("/search", h.Product.SearchProducts)
		products.GET("/categories", h.Product.GetCategories)
		products.GET("/:id", h.Product.GetProductByID)
	}

	api.POST("/scan", h.Scan.Scan)

	// Cart routes
	cart := api.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:product_id", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:product_id", h.Cart.RemoveCartItem)
	}

	// Checkout and order routes
	api.POST("/checkout", h.Order.Checkout)
	api.POST("/checkout/preview", h.Order.PreviewCheckout)
	orders := api.Group("/orders")
	{
		orders.GET("", h.Order.ListOrders)
		orders.GET("/stats", h.Order.GetStats)
	}

	// User routes
	users := api.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.GET("/me", h.User.GetProfile)
		users.PATCH("/me", h.User.UpdateProfile)
		users.POST("/me/addresses", h.User.AddAddress)
		users.DELETE("/me/addresses/:id", h.User.RemoveAddress)
		users.PUT("/me/addresses/:id/select", h.User.SelectAddress)
	}
	api.GET("/addresses/suggest", h.User.SuggestAddresses)

	// Wishlist routes
	wishlist := api.Group("/wishlist")
	{
		wishlist.GET("", h.Wishlist.GetWishlist)
		wishlist.POST("", h.Wishlist.AddToWishlist)
		wishlist.DELETE("", h.Wishlist.ClearWishlist)
		wishlist.DELETE("/:product_id", h.Wishlist.RemoveFromWishlist)
	}

	// Health check
	api.GET("/health", h.Product.HealthCheck)
}
