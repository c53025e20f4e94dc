package handlers

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"purepick/internal/models"
	"purepick/internal/services"
)

type ProductHandler struct {
	productService *services.ProductService
	storeService   *services.StoreService
}

func NewProductHandler(productService *services.ProductService, storeService *services.StoreService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storeService:   storeService,
	}
}

// resolveStore picks the store a catalog request is about: the store_id query
// parameter, then the acting user's selected store, then the default store.
func resolveStore(c *gin.Context, stores *services.StoreService) (models.Store, error) {
	if id := c.Query("store_id"); id != "" {
		return stores.Get(id)
	}
	if email := headerUser(c); email != "" {
		return stores.Current(c.Request.Context(), email)
	}
	return stores.Default(), nil
}

// GET /api/products
// List a store's products with pagination
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	store, err := resolveStore(c, h.storeService)
	if err != nil {
		respondError(c, err)
		return
	}

	products, total, err := h.productService.GetAllProducts(store.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := (total + limit - 1) / limit
	hasNext := page < totalPages
	hasPrev := page > 1

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"meta": gin.H{
			"store_id":    store.ID,
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
			"has_next":    hasNext,
			"has_prev":    hasPrev,
		},
	})
}

// GET /api/products/:id
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	store, err := resolveStore(c, h.storeService)
	if err != nil {
		respondError(c, err)
		return
	}

	product, err := h.productService.GetProductByID(store.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": product,
	})
}

// GET /api/products/search?q=&category=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	category := c.Query("category")

	store, err := resolveStore(c, h.storeService)
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := h.productService.SearchProducts(store.ID, query, category)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"meta": gin.H{
			"store_id": store.ID,
			"total":    len(products),
			"query":    query,
			"category": category,
		},
	})
}

// GET /api/products/categories
// Categories the store actually stocks
func (h *ProductHandler) GetCategories(c *gin.Context) {
	store, err := resolveStore(c, h.storeService)
	if err != nil {
		respondError(c, err)
		return
	}

	categories, err := h.productService.Categories(store.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": categories,
	})
}

// Health check endpoint
func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// Metrics endpoint
func (h *ProductHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"goroutines": runtime.NumGoroutine(),
		"timestamp":  time.Now().Unix(),
	})
}
