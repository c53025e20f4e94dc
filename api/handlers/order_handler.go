package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"purepick/internal/models"
	"purepick/internal/services"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// bindCheckout reads the optional checkout body. An empty body means no
// wallet redemption.
func bindCheckout(c *gin.Context) (models.CheckoutRequest, bool) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

// POST /api/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}
	req, ok := bindCheckout(c)
	if !ok {
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), email, req.RedeemWallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"order":   order,
	})
}

// POST /api/checkout/preview
// Same rules as checkout, nothing is written
func (h *OrderHandler) PreviewCheckout(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}
	req, ok := bindCheckout(c)
	if !ok {
		return
	}

	order, err := h.orderService.Preview(c.Request.Context(), email, req.RedeemWallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// GET /api/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": orders,
	})
}

// GET /api/orders/stats
func (h *OrderHandler) GetStats(c *gin.Context) {
	stats := h.orderService.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}
