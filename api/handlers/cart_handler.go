package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purepick/internal/models"
	"purepick/internal/services"
)

type CartHandler struct {
	cartService  *services.CartService
	storeService *services.StoreService
}

func NewCartHandler(cartService *services.CartService, storeService *services.StoreService) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		storeService: storeService,
	}
}

// GET /api/cart
// Get current user's cart with totals
func (h *CartHandler) GetCart(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": h.cartService.Get(email),
	})
}

// POST /api/cart/items
// Add a product from the user's current store
func (h *CartHandler) AddToCart(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store, err := h.storeService.Current(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	cart, err := h.cartService.Add(email, store.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"data":    cart,
	})
}

// PUT /api/cart/items/:product_id
// Update cart item quantity, zero removes the item
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart, err := h.cartService.UpdateQuantity(email, c.Param("product_id"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"data":    cart,
	})
}

// DELETE /api/cart/items/:product_id
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	cart, err := h.cartService.Remove(email, c.Param("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed",
		"data":    cart,
	})
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	h.cartService.Clear(email)
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
		"data":    h.cartService.Get(email),
	})
}
