package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"purepick/internal/models"
	"purepick/internal/services"
)

type StoreHandler struct {
	storeService *services.StoreService
}

func NewStoreHandler(storeService *services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// GET /api/stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.storeService.List(),
	})
}

// GET /api/stores/nearest?lat=&lng=
func (h *StoreHandler) NearestStore(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be valid coordinates"})
		return
	}

	store, distance := h.storeService.Nearest(lat, lng)
	c.JSON(http.StatusOK, gin.H{
		"data":           store,
		"distance_miles": services.RoundCents(distance),
	})
}

// GET /api/stores/current
func (h *StoreHandler) CurrentStore(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	store, err := h.storeService.Current(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": store,
	})
}

// PUT /api/stores/current
// Switching stores with a non-empty cart needs "confirm": true and empties the cart
func (h *StoreHandler) SelectStore(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.SelectStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store, err := h.storeService.Select(c.Request.Context(), email, req.StoreID, req.Confirm)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Store selected",
		"data":    store,
	})
}
