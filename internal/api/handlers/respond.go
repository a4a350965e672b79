package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/config"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
)

// Response is the success envelope.
type Response struct {
	Status     string `json:"status"`
	Token      string `json:"token,omitempty"`
	Results    *int   `json:"results,omitempty"`
	Page       *int   `json:"page,omitempty"`
	Limit      *int   `json:"limit,omitempty"`
	Total      *int   `json:"total,omitempty"`
	TotalPages *int   `json:"totalPages,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Status: "success", Data: data})
}

// respondPage sends one page; wrap shapes the items inside data.
func respondPage[T any](c *gin.Context, p service.Paged[T], wrap func([]T) any) {
	results := len(p.Items)
	c.JSON(http.StatusOK, Response{
		Status:     "success",
		Results:    &results,
		Page:       &p.Page,
		Limit:      &p.Limit,
		Total:      &p.Total,
		TotalPages: &p.TotalPages,
		Data:       wrap(p.Items),
	})
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes the body; an empty body leaves dst zeroed so the service
// reports the missing fields.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Wrap(apperr.Validation, "Invalid request body", err)
}

func bindPage(c *gin.Context) (service.Page, error) {
	var page service.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperr.Wrap(apperr.Validation, "page and limit must be numbers", err)
	}
	return page, nil
}

func setAuthCookie(c *gin.Context, cfg *config.Config, token string) {
	http.SetCookie(c.Writer, authCookie(cfg, token, cfg.CookieTTL))
}

// clearAuthCookie must match the attributes of the cookie it replaces, or
// browsers keep the original on cross-site requests.
func clearAuthCookie(c *gin.Context, cfg *config.Config) {
	http.SetCookie(c.Writer, authCookie(cfg, "", 0))
}

func authCookie(cfg *config.Config, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	if ttl <= 0 {
		cookie.Expires = time.Unix(0, 0)
		cookie.MaxAge = -1
	}
	// cross-site frontends need None, which browsers only accept on secure cookies
	if cfg.IsProduction() {
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
