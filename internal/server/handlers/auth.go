package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paygrid-system/internal/auth"
)

type AuthHTTPHandler struct {
	service *auth.Service
}

func NewAuthHTTPHandler(service *auth.Service) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		service: service,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *AuthHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, token, exp, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid username or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Login successful", map[string]interface{}{
		"token":      token,
		"expires_at": exp,
		"user":       user,
	}))
}

func (h *AuthHTTPHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, token, exp, err := h.service.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			c.JSON(http.StatusBadRequest, errorResponse("Username or email already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("User registered successfully", map[string]interface{}{
		"token":      token,
		"expires_at": exp,
		"user":       user,
	}))
}
