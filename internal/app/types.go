package app

import (
	"time"

	"github.com/nourabuild/account-service/internal/sdk/models"
)

// RegisterRequest accepts JSON, urlencoded and multipart bodies. The photo
// travels as the multipart file field "photo".
type RegisterRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=100"`
	Email    string `json:"email" form:"email" binding:"required,email,max=254"`
	Password string `json:"password" form:"password" binding:"required,max=72"`
	Phone    string `json:"phone" form:"phone" binding:"omitempty,e164"`
}

type VerifyRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
	Code  string `json:"code" form:"code" binding:"required,max=32"`
}

type ResendRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Photo     *string   `json:"photo,omitempty"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAccountResponse(a models.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		Photo:     a.Photo,
		IsActive:  a.IsActive,
		IsAdmin:   a.IsAdmin,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type LivenessResponse struct {
	Status     string `json:"status"`
	Host       string `json:"host"`
	GOMAXPROCS int    `json:"gomaxprocs"`
}
