package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/api/middleware"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
)

type registryRequest struct {
	JobID string `json:"jobId"`
}

// registryField names the list in responses, e.g. savedJobs.
func registryField(reg *service.Registries) string {
	return string(reg.Kind()) + "Jobs"
}

func HandleListRegistry(ctx *Context, reg *service.Registries) gin.HandlerFunc {
	field := registryField(reg)

	return func(c *gin.Context) {
		page, err := bindPage(c)
		if err != nil {
			fail(c, err)
			return
		}

		user, _ := middleware.CurrentUser(c)

		result, err := reg.List(c.Request.Context(), user.ID, page)
		if err != nil {
			fail(c, err)
			return
		}

		respondPage(c, result, func(jobs []models.Job) any {
			return gin.H{field: jobs}
		})
	}
}

func HandleAddToRegistry(ctx *Context, reg *service.Registries) gin.HandlerFunc {
	field := registryField(reg)

	return func(c *gin.Context) {
		var req registryRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, err)
			return
		}

		user, _ := middleware.CurrentUser(c)

		list, err := reg.AddJob(c.Request.Context(), user, req.JobID)
		if err != nil {
			fail(c, err)
			return
		}

		respond(c, http.StatusOK, gin.H{field: list})
	}
}

func HandleRemoveFromRegistry(ctx *Context, reg *service.Registries) gin.HandlerFunc {
	field := registryField(reg)

	return func(c *gin.Context) {
		var req registryRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, err)
			return
		}

		user, _ := middleware.CurrentUser(c)

		list, err := reg.RemoveJob(c.Request.Context(), user, req.JobID)
		if err != nil {
			fail(c, err)
			return
		}

		respond(c, http.StatusOK, gin.H{field: list})
	}
}
