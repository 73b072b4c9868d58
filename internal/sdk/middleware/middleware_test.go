package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nourabuild/account-service/internal/sdk/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) *jwt.TokenService {
	t.Helper()
	tokens, err := jwt.NewTokenService("test-secret", "test-issuer", time.Minute)
	require.NoError(t, err)
	return tokens
}

func bearer(t *testing.T, tokens *jwt.TokenService, id string, admin bool) string {
	t.Helper()
	tok, err := tokens.GenerateAccessToken(context.Background(), id, id+"@x.com", admin)
	require.NoError(t, err)
	return "Bearer " + tok.AccessToken
}

func newRouter(tokens *jwt.TokenService) *gin.Engine {
	r := gin.New()
	r.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		id, err := GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "email": claims.Email})
	})
	r.GET("/admin", Authenticate(tokens), Admin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens(t)
	r := newRouter(tokens)

	w := do(r, http.MethodGet, "/me", bearer(t, tokens, "acc-1", false))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"acc-1","email":"acc-1@x.com"}`, w.Body.String())
}

func TestAuthenticate_Rejections(t *testing.T) {
	tokens := newTokens(t)
	r := newRouter(tokens)

	expired, err := jwt.NewTokenService("test-secret", "test-issuer", time.Minute,
		jwt.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)

	tests := []struct {
		name string
		auth string
		code string
	}{
		{"missing header", "", "missing_authorization_header"},
		{"wrong scheme", "Basic abc", "invalid_authorization_header"},
		{"garbage token", "Bearer abc.def.ghi", "invalid_token"},
		{"expired token", bearer(t, expired, "acc-1", false), "expired_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/me", tt.auth)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAdmin(t *testing.T) {
	tokens := newTokens(t)
	r := newRouter(tokens)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", bearer(t, tokens, "acc-1", false)).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", bearer(t, tokens, "acc-2", true)).Code)
}

func TestAdmin_WithoutAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/admin", Admin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "").Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodOptions, "/x", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Logger(log))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	do(r, http.MethodGet, "/boom", "")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "/boom", entry["path"])
	assert.EqualValues(t, http.StatusServiceUnavailable, entry["status"])
}
