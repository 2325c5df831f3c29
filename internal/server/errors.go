package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/authhub/internal/berrors"
	"gorm.io/gorm"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandlingMiddleware renders the last collected error as the business
// error contract: its declared status with a {code, message} body.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, body := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, body)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorBody) {
	var businessErr *berrors.BusinessError
	if errors.As(err, &businessErr) {
		return businessErr.StatusCode, errorBody{
			Code:    businessErr.Code,
			Message: businessErr.Message,
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, errorBody{
			Code:    berrors.ErrDataNotFound.Code,
			Message: berrors.ErrDataNotFound.Message,
		}
	}

	return http.StatusInternalServerError, errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}
}

// classifyErrorForLog labels a handler error for the request log.
func classifyErrorForLog(err error) (string, string) {
	var businessErr *berrors.BusinessError
	if errors.As(err, &businessErr) {
		return "business", businessErr.Code
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "business", berrors.ErrDataNotFound.Code
	}
	return "internal", "INTERNAL_ERROR"
}
