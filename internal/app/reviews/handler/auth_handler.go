package handler

import (
	"context"
	"errors"
	"net/http"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SignupServiceInterface interface {
	SignUp(ctx context.Context, req *entity.SignUpRequest) (*entity.AuthResponse, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error)
}

type UsernameServiceInterface interface {
	CheckAvailable(ctx context.Context, rawHandle string) (bool, error)
}

type AuthHandler struct {
	signupService   SignupServiceInterface
	usernameService UsernameServiceInterface
	validator       *validator.Validate
}

func NewAuthHandler(signupService SignupServiceInterface, usernameService UsernameServiceInterface) *AuthHandler {
	return &AuthHandler{
		signupService:   signupService,
		usernameService: usernameService,
		validator:       validator.New(),
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req entity.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	resp, err := h.signupService.SignUp(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		case errors.Is(err, service.ErrEmailExists):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		case errors.Is(err, service.ErrUsernameTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be at least 3 characters"})
		case errors.Is(err, repository.ErrConflictExceeded):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too much contention, please try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign up"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	resp, err := h.signupService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckUsername сообщает, свободен ли handle. Ответ информационный:
// гарантия уникальности даётся только на Reserve при регистрации.
func (h *AuthHandler) CheckUsername(c *gin.Context) {
	handle := c.Query("handle")
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'handle' is required"})
		return
	}

	available, err := h.usernameService.CheckAvailable(c.Request.Context(), handle)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be at least 3 characters"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check username"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}
