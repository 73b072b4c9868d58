package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nourabuild/account-service/internal/sdk/middleware"
)

func (a *App) HandleWhoAmI(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	acc, err := a.accounts.Account(c.Request.Context(), userID)
	if err != nil {
		a.handleAccountError(c, "whoami", err)
		return
	}

	c.JSON(http.StatusOK, toAccountResponse(acc))
}

func (a *App) HandleListUsers(c *gin.Context) {
	accounts, err := a.accounts.Accounts(c.Request.Context())
	if err != nil {
		a.handleAccountError(c, "list_users", err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, toAccountResponse(acc))
	}
	c.JSON(http.StatusOK, resp)
}
