package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Response is the envelope of every API answer
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope. The HTTP status is code / 100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.AbortWithStatusJSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// renderError maps a service error onto the envelope. Internal details only
// reach the log.
func renderError(c *gin.Context, logger *zap.Logger, err error) {
	_ = c.Error(err)

	var nf *entities.NotFoundError
	switch {
	case errors.As(err, &nf):
		NotFound(c, nf.Error())
	case errors.Is(err, entities.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, entities.ErrVersionConflict):
		Conflict(c, err.Error())
	case errors.Is(err, entities.ErrInvalidArgument):
		BadRequest(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		Error(c, 50400, "request timed out")
	case errors.Is(err, context.Canceled):
		Error(c, 49900, "request cancelled")
	default:
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		InternalError(c, "internal server error")
	}
}
