package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const welcome = "Welcome to the CareerFlow API"

func HandleWelcome(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, welcome)
	}
}

// HandleHealth pings every backing service.
func HandleHealth(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(ctx.Checks))

		for name, p := range ctx.Checks {
			if err := p.Ping(pingCtx); err != nil {
				ctx.Logger.Error("health check failed",
					zap.String("check", name),
					zap.Error(err),
				)
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}

		word := "success"
		if status != http.StatusOK {
			word = "error"
		}
		c.JSON(status, Response{Status: word, Data: gin.H{"checks": checks}})
	}
}
