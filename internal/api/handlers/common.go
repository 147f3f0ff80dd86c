package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobdeckhq/jobdeck/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// writeError maps coded errors to JSON. Anything unrecognized becomes a bare
// 500; internals never leak to clients.
func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// requireUserID reads the identity placed in the context by the session
// middleware.
func requireUserID(c *gin.Context) (primitive.ObjectID, bool) {
	if v, ok := c.Get("user_id"); ok {
		if oid, ok := v.(primitive.ObjectID); ok && !oid.IsZero() {
			return oid, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "please log in to continue", nil))
	return primitive.ObjectID{}, false
}

// parseObjectID validates a :id path parameter. A malformed id can never
// match a record, so it reads as NotFound rather than a validation error.
func parseObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		writeError(c, utils.E(utils.CodeNotFound, "Applications", "application not found", err))
		return primitive.ObjectID{}, false
	}
	return oid, true
}
