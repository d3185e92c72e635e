package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDCtxKey = "user_id"
	emailCtxKey  = "email"

	syncStatusHeader = "X-Sync-Status"
)

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, newUnauthorizedError("authorization header required"))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, newUnauthorizedError("invalid authorization header"))
		return
	}

	id, err := h.verifier.Verify(parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to verify token")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	c.Set(userIDCtxKey, id.UserID)
	c.Set(emailCtxKey, id.Email)
	h.logger.Debug().
		Str("user_id", id.UserID).
		Str("email", id.Email).
		Str("path", c.FullPath()).
		Msg("authenticated request")
	c.Next()
}

// userID returns the caller resolved by HandleAuthMiddleware. It aborts
// with 401 and reports false when there is none.
func (h *handlerImpl) userID(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDCtxKey)
	if userID == "" {
		h.logger.Error().Msg(errMissingUserID.Error())
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return "", false
	}
	return userID, true
}

// respond writes body as JSON with the current persistence state attached.
func (h *handlerImpl) respond(c *gin.Context, status int, body any) {
	if h.tasks.SyncStatus().Synced {
		c.Header(syncStatusHeader, "synced")
	} else {
		c.Header(syncStatusHeader, "unsynced")
	}
	c.JSON(status, body)
}
