// Package jwt issues and validates the bearer tokens handed out on login.
//
// Tokens are HS256-signed JWTs whose subject is the account id. They carry
// an absolute expiry of issue time plus the configured TTL. The signing
// secret is loaded once at startup; rotating it invalidates every token
// issued before the rotation.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrExpiredToken     = errors.New("jwt: token has expired")
	ErrTokenNotFound    = errors.New("jwt: token not found")
	ErrInvalidClaims    = errors.New("jwt: invalid claims")
	ErrTokenNotYetValid = errors.New("jwt: token not yet valid")
	ErrMissingSecret    = errors.New("jwt: signing secret is required")
)

// TokenType is the type tag returned alongside every access token.
const TokenType = "bearer"

// Claims identifies the account a token was issued to.
type Claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Token is a signed access token together with its absolute expiry.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// =============================================================================
// Token Service
// =============================================================================

// TokenService creates and validates JWT tokens.
// Create one instance and reuse it throughout your application.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService creates a new TokenService.
//
// Example:
//
//	service, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
//	token, err := service.GenerateAccessToken(ctx, account.ID, account.Email, account.IsAdmin)
func NewTokenService(secret, issuer string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt: ttl must be positive, got %s", ttl)
	}

	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		// Only accept HS256 algorithm - prevents "algorithm confusion" attacks
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)

	return s, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// =============================================================================
// Public Methods
// =============================================================================

// GenerateAccessToken signs a token for the given account.
func (s *TokenService) GenerateAccessToken(ctx context.Context, accountID, email string, isAdmin bool) (Token, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("creating access token: %w", err)
	}

	return Token{AccessToken: signed, TokenType: TokenType, ExpiresAt: expiresAt}, nil
}

// ParseAccessToken validates an access token and returns its claims.
//
// Example:
//
//	claims, err := service.ParseAccessToken(ctx, tokenFromHeader)
//	if err != nil {
//	    http.Error(w, "Unauthorized", http.StatusUnauthorized)
//	    return
//	}
//	accountID := claims.Subject
func (s *TokenService) ParseAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenNotFound
	}

	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, convertError(err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}

	return claims, nil
}

// =============================================================================
// Private Methods
// =============================================================================

// convertError transforms jwt library errors into our custom errors.
func convertError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrTokenNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: token is malformed", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: signature is invalid", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
