package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purepick/internal/models"
	"purepick/internal/services"
)

// WishlistHandler works on the wishlist of the user's current store.
type WishlistHandler struct {
	wishlistService *services.WishlistService
	storeService    *services.StoreService
}

func NewWishlistHandler(wishlistService *services.WishlistService, storeService *services.StoreService) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		storeService:    storeService,
	}
}

func (h *WishlistHandler) userStore(c *gin.Context) (string, string, bool) {
	email, ok := currentUser(c)
	if !ok {
		return "", "", false
	}
	store, err := h.storeService.Current(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return "", "", false
	}
	return email, store.ID, true
}

// GET /api/wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	email, storeID, ok := h.userStore(c)
	if !ok {
		return
	}

	items, err := h.wishlistService.List(c.Request.Context(), email, storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     items,
		"store_id": storeID,
	})
}

// POST /api/wishlist
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	email, storeID, ok := h.userStore(c)
	if !ok {
		return
	}

	var req models.WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.wishlistService.Add(c.Request.Context(), email, storeID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Added to wishlist",
		"data":    items,
	})
}

// DELETE /api/wishlist/:product_id
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	email, storeID, ok := h.userStore(c)
	if !ok {
		return
	}

	items, err := h.wishlistService.Remove(c.Request.Context(), email, storeID, c.Param("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Removed from wishlist",
		"data":    items,
	})
}

// DELETE /api/wishlist
func (h *WishlistHandler) ClearWishlist(c *gin.Context) {
	email, storeID, ok := h.userStore(c)
	if !ok {
		return
	}

	if err := h.wishlistService.Clear(c.Request.Context(), email, storeID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist cleared",
		"data":    []models.Product{},
	})
}
