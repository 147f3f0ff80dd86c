package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobdeckhq/jobdeck/internal/services"
	"github.com/jobdeckhq/jobdeck/internal/utils"
)

// SessionCookie carries the server-held session id. The cookie holds nothing
// else; the id resolves to a user through the shared session store.
const SessionCookie = "jobdeck_sid"

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// SessionAuth resolves the session cookie to a full user before any handler
// runs. Handlers downstream read "user_id" and "user" from the gin context
// and never re-check authentication themselves.
func SessionAuth(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || sid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "please log in to continue",
			})
			return
		}

		u, err := auth.CurrentUser(c.Request.Context(), sid)
		if err != nil {
			if utils.IsCode(err, utils.CodeUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
					Code:    utils.CodeUnauthorized,
					Message: "please log in to continue",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "internal error",
			})
			return
		}

		c.Set("session_id", sid)
		c.Set("user_id", u.ID)
		c.Set("user", u)
		c.Next()
	}
}
