package app

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nourabuild/account-service/internal/account"
	"github.com/nourabuild/account-service/internal/services/sentry"
)

func (a *App) HandleRegister(c *gin.Context) {
	if a.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUpload)
	}

	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		code, details := bindError(err)
		writeError(c, code, details)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)

	if errCode, validationErrors := validateRegisterInput(req); errCode != "" {
		writeError(c, errCode, validationErrors)
		return
	}

	photo, err := photoFromRequest(c)
	if err != nil {
		a.toSentry(c, "register", "photo_upload", sentry.LevelWarning, err)
		writeError(c, ErrInvalidPhoto, nil)
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	params := account.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Phone != "" {
		params.Phone = &req.Phone
	}
	if photo != nil {
		params.Photo = photo
	}

	if _, err := a.accounts.Register(c.Request.Context(), params); err != nil {
		a.handleAccountError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{
		Message: "Registration successful. Check your email for the verification code.",
	})
}

func (a *App) HandleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBind(&req); err != nil {
		code, details := bindError(err)
		writeError(c, code, details)
		return
	}

	if err := a.accounts.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		a.handleAccountError(c, "verify", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Email verified. You can now log in."})
}

func (a *App) HandleResendVerification(c *gin.Context) {
	var req ResendRequest
	if err := c.ShouldBind(&req); err != nil {
		code, details := bindError(err)
		writeError(c, code, details)
		return
	}

	if err := a.accounts.ResendVerificationCode(c.Request.Context(), req.Email); err != nil {
		a.handleAccountError(c, "resend_verification", err)
		return
	}

	// Same answer whether or not a pending account exists for the email.
	c.JSON(http.StatusOK, MessageResponse{
		Message: "If a pending account exists for this email, a new verification code has been sent.",
	})
}

func (a *App) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		code, details := bindError(err)
		writeError(c, code, details)
		return
	}

	session, err := a.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		a.handleAccountError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresIn:   int64(session.ExpiresIn / time.Second),
	})
}

// photoFromRequest opens the optional "photo" file of a multipart body.
func photoFromRequest(c *gin.Context) (multipart.File, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return fh.Open()
}
