package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/config"
)

func cookieFrom(t *testing.T, write func(c *gin.Context)) *http.Cookie {
	t.Helper()

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	write(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	return cookies[0]
}

func TestAuthCookieAttributes(t *testing.T) {
	tests := []struct {
		env      string
		secure   bool
		sameSite http.SameSite
	}{
		{config.EnvProduction, true, http.SameSiteNoneMode},
		{config.EnvDevelopment, false, http.SameSiteLaxMode},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &config.Config{Env: tt.env, CookieTTL: time.Hour}

			set := cookieFrom(t, func(c *gin.Context) { setAuthCookie(c, cfg, "token") })
			assert.Equal(t, "token", set.Value)
			assert.Equal(t, 3600, set.MaxAge)

			cleared := cookieFrom(t, func(c *gin.Context) { clearAuthCookie(c, cfg) })
			assert.Empty(t, cleared.Value)
			assert.Less(t, cleared.MaxAge, 0)

			// the clearing cookie must carry the same scope as the one it replaces
			for _, ck := range []*http.Cookie{set, cleared} {
				assert.Equal(t, "/", ck.Path)
				assert.True(t, ck.HttpOnly)
				assert.Equal(t, tt.secure, ck.Secure)
				assert.Equal(t, tt.sameSite, ck.SameSite)
			}
		})
	}
}
