package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/pkg/logger"
)

// GenericServerMessage is returned for persistence and unexpected errors.
const GenericServerMessage = "Server error"

// Response is the envelope shared by every endpoint. Payload fields are
// merged into the top-level object next to success and message.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func envelope(success bool, message string, payload gin.H) gin.H {
	body := gin.H{"success": success}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		if k == "success" || k == "message" {
			continue
		}
		body[k] = v
	}
	return body
}

// --- Gin response helpers ---

// Success sends a 200 OK response with payload.
func Success(c *gin.Context, message string, payload gin.H) {
	c.JSON(http.StatusOK, envelope(true, message, payload))
}

// Created sends a 201 Created response with payload.
func Created(c *gin.Context, message string, payload gin.H) {
	c.JSON(http.StatusCreated, envelope(true, message, payload))
}

// Error sends an error response. If err is an *AppError its status is used;
// persistence and unknown errors are logged and answered with a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindPersistence {
		if appErr.Err != nil {
			logger.Warn().Err(appErr.Err).
				Str("kind", string(appErr.Kind)).
				Str("path", c.Request.URL.Path).
				Msg(appErr.Message)
		}
		c.JSON(appErr.HTTPStatus, envelope(false, appErr.Message, nil))
		return
	}
	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, envelope(false, GenericServerMessage, nil))
}

// Abort writes an error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, envelope(false, msg, nil))
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, envelope(false, msg, nil))
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, envelope(false, msg, nil))
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, envelope(false, msg, nil))
}

func TooManyRequests(c *gin.Context, msg string) {
	c.JSON(http.StatusTooManyRequests, envelope(false, msg, nil))
}

// MethodNotAllowed sends a 405 with extra payload fields, usually a usage hint.
func MethodNotAllowed(c *gin.Context, msg string, payload gin.H) {
	c.JSON(http.StatusMethodNotAllowed, envelope(false, msg, payload))
}
