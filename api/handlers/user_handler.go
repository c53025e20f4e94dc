package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purepick/internal/models"
	"purepick/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created",
		"data":    user,
	})
}

// POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": user,
	})
}

// GET /api/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": user,
	})
}

// PATCH /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), email, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"data":    user,
	})
}

// POST /api/users/me/addresses
// The new address becomes the selected one
func (h *UserHandler) AddAddress(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.AddAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.AddAddress(c.Request.Context(), email, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Address added",
		"data":    user,
	})
}

// DELETE /api/users/me/addresses/:id
func (h *UserHandler) RemoveAddress(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.RemoveAddress(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address removed",
		"data":    user,
	})
}

// PUT /api/users/me/addresses/:id/select
func (h *UserHandler) SelectAddress(c *gin.Context) {
	email, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.SelectAddress(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address selected",
		"data":    user,
	})
}

// GET /api/addresses/suggest?q=
func (h *UserHandler) SuggestAddresses(c *gin.Context) {
	suggestions, err := h.userService.SuggestAddresses(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": suggestions,
	})
}
