package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
)

const genericMessage = "Something went wrong"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Errors renders the last error attached to the context. Details of
// unexpected errors are only exposed outside production.
func Errors(production bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := render(err, production)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		c.AbortWithStatusJSON(status, body)
	}
}

func render(err error, production bool) (int, ErrorResponse) {
	if e, ok := apperr.As(err); ok && e.Kind != apperr.Internal {
		body := ErrorResponse{Status: statusWord(e.Status), Message: e.Message}
		return e.Status, body
	}

	body := ErrorResponse{Status: "error", Message: genericMessage}
	if e, ok := apperr.As(err); ok {
		body.Message = e.Message
	}
	if !production {
		body.Error = err.Error()
	}
	return http.StatusInternalServerError, body
}

func statusWord(status int) string {
	if status >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}

// NotFound answers requests that matched no route.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperr.New(apperr.NotFound, "Cannot find this route on this server"))
		c.Abort()
	}
}
