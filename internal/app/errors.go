package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nourabuild/account-service/internal/account"
	"github.com/nourabuild/account-service/internal/services/sentry"
)

const (
	ErrUnmarshal               = "invalid_request_body"
	ErrRequestTooLarge         = "request_too_large"
	ErrMissingFields           = "missing_required_fields"
	ErrInvalidFields           = "invalid_fields"
	ErrPasswordTooShort        = "password_too_short"
	ErrPasswordTooLong         = "password_too_long"
	ErrPasswordNoUppercase     = "password_must_contain_uppercase"
	ErrPasswordNoNumber        = "password_must_contain_number"
	ErrPasswordNoSpecialChar   = "password_must_contain_special_character"
	ErrAccountExists           = "account_already_exists"
	ErrInvalidPhoto            = "invalid_photo"
	ErrInvalidVerificationCode = "invalid_verification_code"
	ErrInvalidCredentials      = "invalid_credentials"
	ErrAccountNotActive        = "account_not_active"
	ErrUnauthorized            = "unauthorized"
	ErrForbidden               = "forbidden"
	ErrUserNotFound            = "user_not_found"
	ErrNotificationFailed      = "notification_failed"
	ErrPhotoStorage            = "internal_photo_storage_error"
	ErrStorageUnavailable      = "storage_unavailable"
	ErrInternal                = "internal_error"
)

var errorStatusMap = map[string]int{
	ErrUnmarshal:               http.StatusBadRequest,
	ErrRequestTooLarge:         http.StatusRequestEntityTooLarge,
	ErrMissingFields:           http.StatusBadRequest,
	ErrInvalidFields:           http.StatusBadRequest,
	ErrPasswordTooShort:        http.StatusBadRequest,
	ErrPasswordTooLong:         http.StatusBadRequest,
	ErrPasswordNoUppercase:     http.StatusBadRequest,
	ErrPasswordNoNumber:        http.StatusBadRequest,
	ErrPasswordNoSpecialChar:   http.StatusBadRequest,
	ErrAccountExists:           http.StatusBadRequest,
	ErrInvalidPhoto:            http.StatusBadRequest,
	ErrInvalidVerificationCode: http.StatusBadRequest,
	ErrInvalidCredentials:      http.StatusUnauthorized,
	ErrAccountNotActive:        http.StatusForbidden,
	ErrUnauthorized:            http.StatusUnauthorized,
	ErrForbidden:               http.StatusForbidden,
	ErrUserNotFound:            http.StatusUnauthorized,
	ErrNotificationFailed:      http.StatusInternalServerError,
	ErrPhotoStorage:            http.StatusInternalServerError,
	ErrStorageUnavailable:      http.StatusServiceUnavailable,
	ErrInternal:                http.StatusInternalServerError,
}

var errorMessages = map[string]string{
	ErrUnmarshal:               "The request body could not be parsed.",
	ErrRequestTooLarge:         "The request body is too large.",
	ErrMissingFields:           "Required fields are missing.",
	ErrInvalidFields:           "Some fields are invalid.",
	ErrPasswordTooShort:        "Password must be at least 8 characters long.",
	ErrPasswordTooLong:         "Password must be at most 72 bytes long.",
	ErrPasswordNoUppercase:     "Password must contain an uppercase letter.",
	ErrPasswordNoNumber:        "Password must contain a number.",
	ErrPasswordNoSpecialChar:   "Password must contain a special character.",
	ErrAccountExists:           "An account with this email already exists.",
	ErrInvalidPhoto:            "The photo is not a supported image.",
	ErrInvalidVerificationCode: "The verification code is invalid.",
	ErrInvalidCredentials:      "Email or password is incorrect.",
	ErrAccountNotActive:        "The account has not been verified yet.",
	ErrUnauthorized:            "Authentication is required.",
	ErrForbidden:               "You are not allowed to access this resource.",
	ErrUserNotFound:            "The account no longer exists.",
	ErrNotificationFailed:      "The verification email could not be sent. Please try again.",
	ErrPhotoStorage:            "The photo could not be stored. Please try again.",
	ErrStorageUnavailable:      "The service is temporarily unavailable. Please try again.",
	ErrInternal:                "An unexpected error occurred.",
}

func statusForError(code string) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, code string, details map[string]string) {
	c.AbortWithStatusJSON(statusForError(code), ErrorResponse{
		Error:   code,
		Message: errorMessages[code],
		Details: details,
	})
}

// accountErrorCode maps a lifecycle error onto its response code.
func accountErrorCode(err error) string {
	switch {
	case errors.Is(err, account.ErrDuplicateAccount):
		return ErrAccountExists
	case errors.Is(err, account.ErrInvalidVerificationCode):
		return ErrInvalidVerificationCode
	case errors.Is(err, account.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, account.ErrAccountNotActive):
		return ErrAccountNotActive
	case errors.Is(err, account.ErrInvalidPhoto):
		return ErrInvalidPhoto
	case errors.Is(err, account.ErrNotificationFailed):
		return ErrNotificationFailed
	case errors.Is(err, account.ErrPhotoStorage):
		return ErrPhotoStorage
	case errors.Is(err, account.ErrStorageUnavailable):
		return ErrStorageUnavailable
	case errors.Is(err, account.ErrAccountNotFound):
		return ErrUserNotFound
	default:
		return ErrInternal
	}
}

// handleAccountError writes the response for err. Server-side failures are
// logged and reported; expected outcomes are not.
func (a *App) handleAccountError(c *gin.Context, handler string, err error) {
	code := accountErrorCode(err)
	if statusForError(code) >= http.StatusInternalServerError {
		a.log.Error("request failed", "handler", handler, "code", code, "error", err)
		a.toSentry(c, handler, code, sentry.LevelError, err)
	}
	writeError(c, code, nil)
}

func (a *App) toSentry(c *gin.Context, handler, errType string, level sentry.Level, err error) {
	if a.sentry == nil || !a.sentry.Enabled() {
		return
	}
	a.sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("handler", handler)
		scope.SetExtra("error_type", errType)
		scope.SetLevel(level)
		if reqID := c.GetHeader("X-Request-ID"); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		a.sentry.CaptureException(err)
	})
}
