package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stencild/stencild/internal/tokens"
	"github.com/stencild/stencild/internal/users"
	"github.com/stencild/stencild/pkg/logger"
	"github.com/stencild/stencild/pkg/metrics"
	"github.com/stencild/stencild/pkg/middleware"
)

// RegisterRequest creates a new account. Role defaults to USER; unknown role
// names are treated as USER as well.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler exposes registration, login, logout and the current-user probe.
type AuthHandler struct {
	usersSvc  *users.Service
	tokensSvc *tokens.Service
}

func NewAuthHandler(u *users.Service, t *tokens.Service) *AuthHandler {
	return &AuthHandler{usersSvc: u, tokensSvc: t}
}

// Register routes under /auth.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.GET("/me", middleware.RequireUser(), h.Me)
}

// RegisterUser creates an account and logs it in, returning a fresh token.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), req.Email, req.Name, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		logger.Errorf("register %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	token, err := h.tokensSvc.Issue(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	metrics.TokensIssued.Inc()
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": u})
}

// Login exchanges credentials for a signed access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			metrics.AuthFailures.WithLabelValues("bad_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		logger.Errorf("login %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	token, err := h.tokensSvc.Issue(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	metrics.TokensIssued.Inc()
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u, "expiresIn": int(h.tokensSvc.TTL().Seconds())})
}

// Logout revokes the presented access token so it stops validating before it
// expires. Revoking an already-revoked token is still a 200.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := middleware.BearerToken(c)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing bearer token"})
		return
	}
	if err := h.tokensSvc.Revoke(c.Request.Context(), raw); err != nil {
		logger.Errorf("logout revoke: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	metrics.TokensRevoked.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
