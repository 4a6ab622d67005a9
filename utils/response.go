package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"order-management/models"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Status        int         `json:"status"`
	Message       string      `json:"message"`
	Timestamp     time.Time   `json:"timestamp"`
	Data          interface{} `json:"data,omitempty"`
	TotalPages    *int        `json:"totalPages,omitempty"`
	TotalElements *int64      `json:"totalElements,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:    statusCode,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// PageResponse answers with one page of results and its totals.
func PageResponse[T any](c *gin.Context, message string, page *models.Page[T]) {
	totalPages, totalElements := page.TotalPages, page.TotalElements
	c.JSON(http.StatusOK, Response{
		Status:        http.StatusOK,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		Data:          page.Items,
		TotalPages:    &totalPages,
		TotalElements: &totalElements,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Status:    statusCode,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as an envelope. Internal errors are logged and
// reported with a generic message.
func HandleError(c *gin.Context, log *logrus.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.WithField("path", c.FullPath()).Errorf("Request failed: %v", err)
		ErrorResponse(c, status, "internal server error")
		return
	}
	ErrorResponse(c, status, err.Error())
}
