package utils

import (
	"errors"
	"net/http"

	"docchat-platform/internal/logger"
	"docchat-platform/models"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	ErrorCode string      `json:"error_code"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Error:     message,
		ErrorCode: errorCode,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithAppError maps a domain error onto a status code. Client errors
// echo their reason; server errors are logged and answered generically.
func RespondWithAppError(c *gin.Context, err error, fallback string) {
	var (
		uploadErr  *models.InvalidUploadError
		requestErr *models.InvalidRequestError
	)
	switch {
	case errors.As(err, &uploadErr):
		RespondWithError(c, http.StatusBadRequest, "invalid_upload", uploadErr.Error(), nil)
	case errors.As(err, &requestErr):
		RespondWithError(c, http.StatusBadRequest, "invalid_request", requestErr.Error(), nil)
	case errors.Is(err, models.ErrJobNotFound):
		RespondWithNotFound(c, err.Error())
	case errors.Is(err, models.ErrRateLimitExhausted):
		logger.Error(fallback, "error", err, "path", c.FullPath())
		RespondWithError(c, http.StatusInternalServerError, "rate_limit_exhausted", fallback, nil)
	case errors.Is(err, models.ErrUpstream):
		logger.Error(fallback, "error", err, "path", c.FullPath())
		RespondWithError(c, http.StatusInternalServerError, "upstream_error", fallback, nil)
	default:
		logger.Error(fallback, "error", err, "path", c.FullPath())
		RespondWithInternalError(c, fallback, nil)
	}
}
