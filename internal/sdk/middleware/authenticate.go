// Package middleware holds the gin middleware shared by every route group.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nourabuild/account-service/internal/sdk/jwt"
)

const (
	UserIDKey  = "user_id"
	EmailKey   = "email"
	IsAdminKey = "is_admin"
	ClaimsKey  = "claims"

	bearerPrefix = "Bearer "
)

var ErrNoUserInContext = errors.New("no authenticated user in context")

// TokenParser validates bearer tokens. *jwt.TokenService satisfies it.
type TokenParser interface {
	ParseAccessToken(ctx context.Context, token string) (*jwt.Claims, error)
}

// Authenticate validates the bearer token and stores its claims on the
// gin context.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "missing_authorization_header")
			return
		}

		if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			abort(c, http.StatusUnauthorized, "invalid_authorization_header")
			return
		}

		tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])

		claims, err := tokens.ParseAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				abort(c, http.StatusUnauthorized, "expired_token")
				return
			}
			abort(c, http.StatusUnauthorized, "invalid_token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.Subject)
		c.Set(EmailKey, claims.Email)
		c.Set(IsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// GetUserID returns the account id stored by Authenticate.
func GetUserID(c *gin.Context) (string, error) {
	id := c.GetString(UserIDKey)
	if id == "" {
		return "", ErrNoUserInContext
	}
	return id, nil
}

// GetClaims returns the token claims stored by Authenticate.
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func abort(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}
