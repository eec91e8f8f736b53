package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stencild/stencild/internal/config"
	"github.com/stencild/stencild/internal/templates"
	"github.com/stencild/stencild/internal/tokens"
	"github.com/stencild/stencild/internal/users"
	"github.com/stencild/stencild/pkg/middleware"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the full HTTP stack against in-memory repositories.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	usersSvc := users.NewService(users.NewMemoryRepository())
	tokensSvc := tokens.NewService(
		config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour},
		tokens.NewMemoryRevocations(),
	)
	tplSvc := templates.NewService(templates.NewMemoryRepository())

	r := gin.New()
	api := r.Group("/api", middleware.Authenticate(tokensSvc, usersSvc))
	NewAuthHandler(usersSvc, tokensSvc).Register(api)
	NewTemplatesHandler(tplSvc, nil, nil).Register(api)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine, email, role string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "name": "Someone", "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestServer(t)
	registerAndLogin(t, r, "dup@example.com", "")

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "dup@example.com", "name": "Other", "password": "password123",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_BadPayload(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "not-an-email", "name": "x", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Roundtrip(t *testing.T) {
	r := newTestServer(t)
	registerAndLogin(t, r, "login@example.com", "")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "login@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, 3600, resp.ExpiresIn)

	// token works against /me
	me := doJSON(t, r, http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	var u struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &u))
	require.Equal(t, "login@example.com", u.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	r := newTestServer(t)
	registerAndLogin(t, r, "wrongpw@example.com", "")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "wrongpw@example.com", "password": "not-the-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w2 := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "nobody@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, w2.Code)
}

func TestMe_RequiresAuthentication(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	r := newTestServer(t)
	token := registerAndLogin(t, r, "logout@example.com", "")

	// token valid before logout
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil).Code)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/api/auth/logout", token, nil).Code)

	// revoked token is now rejected outright
	require.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil).Code)
}

func TestLogout_WithoutToken(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidBearerRejected(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/api/auth/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
