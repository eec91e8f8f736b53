package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stencild/stencild/internal/models"
	"github.com/stencild/stencild/pkg/logger"
	"github.com/stencild/stencild/pkg/metrics"
)

const (
	userKey    = "user"
	subjectKey = "subject"
)

// TokenValidator is the minimal token interface the middleware depends on.
// Validate returns the subject of a verified, non-revoked token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// SubjectResolver loads the account a token subject refers to.
// A nil user without error means the subject is unknown.
type SubjectResolver interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate returns a Gin middleware that resolves the current user from a
// Bearer token. A request without an Authorization header proceeds
// unauthenticated; a header that is present but malformed, invalid or revoked
// is rejected with 401. A valid token whose subject no longer exists also
// proceeds unauthenticated.
func Authenticate(validator TokenValidator, resolver SubjectResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || raw == "" {
			metrics.AuthFailures.WithLabelValues("malformed_header").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		sub, err := validator.Validate(c.Request.Context(), raw)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		u, err := resolver.GetByID(c.Request.Context(), sub)
		if err != nil {
			// a lookup fault degrades to unauthenticated, same as an
			// unknown subject
			logger.Warnf("subject lookup %s: %v", sub, err)
			metrics.AuthFailures.WithLabelValues("subject_lookup").Inc()
			c.Next()
			return
		}
		if u == nil {
			// token outlived its account
			c.Next()
			return
		}

		c.Set(userKey, u)
		c.Set(subjectKey, u.ID)
		c.Next()
	}
}

// RequireUser rejects requests that did not authenticate.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// BearerToken extracts the raw token from the Authorization header, if any.
func BearerToken(c *gin.Context) string {
	raw, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	return raw
}
