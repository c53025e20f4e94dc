package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"purepick/internal/geocode"
	"purepick/internal/scan"
	"purepick/internal/services"
)

const userHeader = "X-User-Email"

// statusClientClosedRequest is the nginx convention for a client that went
// away before the response was ready.
const statusClientClosedRequest = 499

// headerUser returns the normalized acting user, or "" when the header is
// absent. Emails are stored lowercased, so every lookup goes through here.
func headerUser(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.GetHeader(userHeader)))
}

// currentUser reads the acting user from the request header. It writes a 401
// and returns false when the header is missing.
func currentUser(c *gin.Context) (string, bool) {
	email := headerUser(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + userHeader + " header"})
		return "", false
	}
	return email, true
}

var checkoutReasons = map[error]string{
	services.ErrEmptyCart:          "empty_cart",
	services.ErrNoAddress:          "no_address",
	services.ErrAddressNotFound:    "address_not_found",
	services.ErrMissingCoordinates: "missing_coordinates",
	services.ErrOutOfDeliveryRange: "out_of_delivery_range",
}

// respondError maps service errors to status codes. Unknown errors become a
// 500 and are attached to the context for the request logger.
func respondError(c *gin.Context, err error) {
	var (
		checkoutErr *services.CheckoutError
		analysisErr *scan.AnalysisError
	)

	switch {
	case errors.As(err, &checkoutErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  checkoutErr.Error(),
			"reason": checkoutReasons[checkoutErr.Reason],
		})
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrStoreNotFound),
		errors.Is(err, services.ErrItemNotInCart),
		errors.Is(err, services.ErrAddressNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrCartNotEmpty),
		errors.Is(err, services.ErrConcurrentCheckout),
		errors.Is(err, scan.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, geocode.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, scan.ErrAnalysisTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, scan.ErrAnalysisUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, scan.ErrAnalysisCanceled):
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.As(err, &analysisErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": analysisErr.Cause})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
