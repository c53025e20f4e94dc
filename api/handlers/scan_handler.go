package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"purepick/internal/models"
	"purepick/internal/scan"
	"purepick/internal/services"
)

type ScanHandler struct {
	coordinator    *scan.Coordinator
	productService *services.ProductService
	storeService   *services.StoreService
}

func NewScanHandler(coordinator *scan.Coordinator, productService *services.ProductService, storeService *services.StoreService) *ScanHandler {
	return &ScanHandler{
		coordinator:    coordinator,
		productService: productService,
		storeService:   storeService,
	}
}

// POST /api/scan
// Resolve a barcode against the user's store, falling back to product analysis.
// A newer scan from the same user cancels this one.
func (h *ScanHandler) Scan(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	barcode := strings.TrimSpace(req.Barcode)
	if barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	store, err := h.storeService.Current(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	products, err := h.productService.StoreProducts(store.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.coordinator.Scan(c.Request.Context(), email, barcode, products, h.productService.CategoryNames())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     res,
		"store_id": store.ID,
	})
}
