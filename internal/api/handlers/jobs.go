package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/api/middleware"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
)

type jobRequest struct {
	Role        string   `json:"role"`
	Date        string   `json:"date"`
	Locations   []string `json:"locations"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
}

type jobPatchRequest struct {
	Role        *string  `json:"role"`
	Date        *string  `json:"date"`
	Locations   []string `json:"locations"`
	Description *string  `json:"description"`
	Remote      *bool    `json:"remote"`
}

func jobsData[T any](items []T) any {
	return gin.H{"jobs": items}
}

func HandleListJobs(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := bindPage(c)
		if err != nil {
			fail(c, err)
			return
		}

		viewer, _ := middleware.CurrentUser(c)

		result, err := ctx.Jobs.List(c.Request.Context(), page, viewer)
		if err != nil {
			fail(c, err)
			return
		}

		respondPage(c, result, jobsData[models.JobView])
	}
}

func HandleSearchJobs(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := bindPage(c)
		if err != nil {
			fail(c, err)
			return
		}

		viewer, _ := middleware.CurrentUser(c)

		result, err := ctx.Jobs.Search(c.Request.Context(), c.Param("text"), page, viewer)
		if err != nil {
			fail(c, err)
			return
		}

		respondPage(c, result, jobsData[models.JobView])
	}
}

func HandleGetJob(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, _ := middleware.CurrentUser(c)

		job, err := ctx.Jobs.Get(c.Request.Context(), c.Param("id"), viewer)
		if err != nil {
			fail(c, err)
			return
		}

		respond(c, http.StatusOK, gin.H{"job": job})
	}
}

func HandleMyJobs(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := bindPage(c)
		if err != nil {
			fail(c, err)
			return
		}

		employer, _ := middleware.CurrentUser(c)

		result, err := ctx.Jobs.ListByEmployer(c.Request.Context(), employer, page)
		if err != nil {
			fail(c, err)
			return
		}

		respondPage(c, result, jobsData[models.Job])
	}
}

func HandleCreateJob(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req jobRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, err)
			return
		}

		employer, _ := middleware.CurrentUser(c)

		job, err := ctx.Jobs.Create(c.Request.Context(), employer, service.JobInput{
			Role:        req.Role,
			Date:        req.Date,
			Locations:   req.Locations,
			Description: req.Description,
			Remote:      req.Remote,
		})
		if err != nil {
			fail(c, err)
			return
		}

		respond(c, http.StatusCreated, gin.H{"job": job})
	}
}

func HandleUpdateJob(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req jobPatchRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, err)
			return
		}

		employer, _ := middleware.CurrentUser(c)

		job, err := ctx.Jobs.Update(c.Request.Context(), employer, c.Param("id"), service.JobPatch{
			Role:        req.Role,
			Date:        req.Date,
			Locations:   req.Locations,
			Description: req.Description,
			Remote:      req.Remote,
		})
		if err != nil {
			fail(c, err)
			return
		}

		respond(c, http.StatusOK, gin.H{"job": job})
	}
}

func HandleDeleteJob(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		employer, _ := middleware.CurrentUser(c)

		if err := ctx.Jobs.Delete(c.Request.Context(), employer, c.Param("id")); err != nil {
			fail(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func HandleApplicants(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		employer, _ := middleware.CurrentUser(c)

		result, err := ctx.Jobs.Applicants(c.Request.Context(), employer, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}

		results := result.Count
		c.JSON(http.StatusOK, Response{
			Status:  "success",
			Results: &results,
			Data:    result,
		})
	}
}
