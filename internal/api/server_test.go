package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/config"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/storage/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:             config.EnvDevelopment,
		HTTPAddr:        ":0",
		StorageDriver:   config.DriverMemory,
		JWTSecret:       testSecret,
		TokenTTL:        time.Hour,
		CookieTTL:       time.Hour,
		BcryptCost:      bcrypt.MinCost,
		RateLimitPerMin: 100,
		LogLevel:        "error",
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	s, err := New(testConfig(), memory.New(), nil, zap.NewNop())
	require.NoError(t, err)
	return s
}

// client keeps the auth cookie between requests like a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
	bearer  string
}

func newClient(t *testing.T, s *Server) *client {
	return &client{t: t, handler: s.Handler(), cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "no data object in %v", body)
	return d
}

func description() string {
	return strings.Repeat("Design, build and run the services behind our job board. ", 4)
}

func signupEmployer(t *testing.T, s *Server, email string) *client {
	c := newClient(t, s)
	rec, _ := c.do(http.MethodPost, "/api/v1/user/signup", map[string]any{
		"email":           email,
		"password":        "password1",
		"passwordConfirm": "password1",
		"type":            "employer",
		"firstName":       "Bo",
		"lastName":        "Kim",
		"company":         "Acme",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return c
}

func postJob(t *testing.T, c *client, role string) string {
	rec, body := c.do(http.MethodPost, "/api/v1/job/", map[string]any{
		"role":        role,
		"date":        "2024-05-01",
		"locations":   []string{"Berlin"},
		"description": description(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := data(t, body)["job"].(map[string]any)
	return job["id"].(string)
}

func TestSavedJobsScenario(t *testing.T) {
	s := newTestServer(t)
	boss := signupEmployer(t, s, "boss@x.com")
	jobID := postJob(t, boss, "Go Developer")

	ann := newClient(t, s)
	rec, body := ann.do(http.MethodPost, "/api/v1/user/signup", map[string]any{
		"email":           "a@x.com",
		"password":        "password1",
		"passwordConfirm": "password1",
		"type":            "employee",
		"firstName":       "Ann",
		"lastName":        "Lee",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := data(t, body)["user"].(map[string]any)
	userID := user["id"].(string)
	assert.NotEmpty(t, user["savedJobsId"])
	assert.NotEmpty(t, user["appliedJobsId"])
	assert.Nil(t, user["passwordHash"])

	// start from a fresh browser and log in
	ann = newClient(t, s)
	rec, body = ann.do(http.MethodPost, "/api/v1/user/login", map[string]any{
		"email":    "a@x.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookie := ann.cookies[auth.CookieName]
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, cookie.Value, body["token"])

	claims, err := auth.NewTokens(auth.TokenConfig{Secret: testSecret, TTL: time.Hour}).Verify(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)

	rec, body = ann.do(http.MethodGet, "/api/v1/job/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := data(t, body)["jobs"].([]any)
	require.Len(t, jobs, 1)
	assert.Equal(t, false, jobs[0].(map[string]any)["isSaved"])
	assert.Equal(t, false, jobs[0].(map[string]any)["isApplied"])

	rec, body = ann.do(http.MethodPost, "/api/v1/savedjobs/", map[string]any{"jobId": jobID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := data(t, body)["savedJobs"].(map[string]any)
	assert.Len(t, saved["jobs"], 1)

	_, body = ann.do(http.MethodGet, "/api/v1/job/", nil)
	jobs = data(t, body)["jobs"].([]any)
	assert.Equal(t, true, jobs[0].(map[string]any)["isSaved"])

	rec, body = ann.do(http.MethodGet, "/api/v1/savedjobs/?page=1&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["totalPages"])
	assert.Len(t, data(t, body)["savedJobs"], 1)

	rec, _ = ann.do(http.MethodDelete, "/api/v1/savedjobs/", map[string]any{"jobId": jobID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = ann.do(http.MethodDelete, "/api/v1/savedjobs/", map[string]any{"jobId": jobID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Job was not saved", body["message"])
}

func TestAppliedJobsAndApplicants(t *testing.T) {
	s := newTestServer(t)
	boss := signupEmployer(t, s, "boss@x.com")
	jobID := postJob(t, boss, "Go Developer")

	ann := newClient(t, s)
	rec, _ := ann.do(http.MethodPost, "/api/v1/user/signup", map[string]any{
		"email":           "a@x.com",
		"password":        "password1",
		"passwordConfirm": "password1",
		"role":            "employee",
		"firstName":       "Ann",
		"lastName":        "Lee",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = ann.do(http.MethodPost, "/api/v1/appliedjobs/", map[string]any{"jobId": jobID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body := ann.do(http.MethodPost, "/api/v1/appliedjobs/", map[string]any{"jobId": jobID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Job is already applied", body["message"])

	rec, body = boss.do(http.MethodGet, "/api/v1/job/"+jobID+"/applicants", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, body["results"])
	applicants := data(t, body)["applicants"].([]any)
	applicant := applicants[0].(map[string]any)["applicant"].(map[string]any)
	assert.Equal(t, "Ann Lee", applicant["fullName"])

	rec, body = boss.do(http.MethodGet, "/api/v1/user/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := data(t, body)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["activeJobs"])
	assert.EqualValues(t, 1, stats["applicants"])

	rec, body = ann.do(http.MethodGet, "/api/v1/user/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats = data(t, body)["stats"].(map[string]any)
	assert.EqualValues(t, 0, stats["savedJobs"])
	assert.EqualValues(t, 1, stats["appliedJobs"])

	// deleting the job clears it from the applicant's list
	rec, _ = boss.do(http.MethodDelete, "/api/v1/job/"+jobID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, body = ann.do(http.MethodGet, "/api/v1/appliedjobs/", nil)
	assert.EqualValues(t, 0, body["total"])
}

func TestRoleRestrictions(t *testing.T) {
	s := newTestServer(t)
	boss := signupEmployer(t, s, "boss@x.com")
	jobID := postJob(t, boss, "Go Developer")

	ann := newClient(t, s)
	rec, _ := ann.do(http.MethodPost, "/api/v1/user/signup", map[string]any{
		"email":           "a@x.com",
		"password":        "password1",
		"passwordConfirm": "password1",
		"firstName":       "Ann",
		"lastName":        "Lee",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := ann.do(http.MethodPost, "/api/v1/job/", map[string]any{"role": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. This resource is only available to employer users.", body["message"])

	rec, body = boss.do(http.MethodPost, "/api/v1/savedjobs/", map[string]any{"jobId": jobID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. This resource is only available to employee users.", body["message"])

	other := signupEmployer(t, s, "other@x.com")
	rec, body = other.do(http.MethodPatch, "/api/v1/job/"+jobID, map[string]any{"role": "Mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only update your own job postings", body["message"])

	rec, _ = other.do(http.MethodDelete, "/api/v1/job/"+jobID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	anon := newClient(t, s)
	rec, body = anon.do(http.MethodDelete, "/api/v1/job/"+jobID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "You are not logged in. Please login to get access.", body["message"])
}

func TestAuthTransport(t *testing.T) {
	s := newTestServer(t)
	boss := signupEmployer(t, s, "boss@x.com")
	token := boss.cookies[auth.CookieName].Value

	bearer := newClient(t, s)
	bearer.bearer = token
	rec, body := bearer.do(http.MethodGet, "/api/v1/user/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := data(t, body)["user"].(map[string]any)
	assert.Equal(t, "boss@x.com", user["email"])
	assert.Equal(t, "employer", user["type"])
	assert.Equal(t, "Bo Kim", user["fullName"])

	bad := newClient(t, s)
	bad.bearer = token + "x"
	rec, body = bad.do(http.MethodGet, "/api/v1/user/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token. Please login again.", body["message"])

	// a bad token on an optional route is treated as anonymous
	rec, _ = bad.do(http.MethodGet, "/api/v1/job/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = boss.do(http.MethodPost, "/api/v1/user/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", data(t, body)["message"])
	assert.NotContains(t, boss.cookies, auth.CookieName)

	rec, _ = boss.do(http.MethodGet, "/api/v1/user/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	signupEmployer(t, s, "boss@x.com")
	c := newClient(t, s)

	rec, body := c.do(http.MethodPost, "/api/v1/user/login", map[string]any{"email": "ghost@x.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User does not exist. Please signup first.", body["message"])

	rec, body = c.do(http.MethodPost, "/api/v1/user/login", map[string]any{"email": "boss@x.com", "password": "password2"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect password. Please try again", body["message"])
	assert.Empty(t, c.cookies)

	rec, body = c.do(http.MethodPost, "/api/v1/user/login", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide both email and password.", body["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	s.Handler().ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestChangePasswordKeepsSession(t *testing.T) {
	s := newTestServer(t)
	boss := signupEmployer(t, s, "boss@x.com")
	before := boss.cookies[auth.CookieName].Value

	rec, body := boss.do(http.MethodPatch, "/api/v1/user/change-password", map[string]any{
		"currentPassword":    "password1",
		"newPassword":        "password2",
		"newPasswordConfirm": "password2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["token"])

	rec, _ = boss.do(http.MethodGet, "/api/v1/user/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// issued moments earlier, usually within the same second
	old := newClient(t, s)
	old.bearer = before
	rec, body = old.do(http.MethodGet, "/api/v1/user/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Password was changed recently. Please login again.", body["message"])

	c := newClient(t, s)
	rec, _ = c.do(http.MethodPost, "/api/v1/user/login", map[string]any{"email": "boss@x.com", "password": "password2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobsEndpoints(t *testing.T) {
	s := newTestServer(t)
	boss := signupEmployer(t, s, "boss@x.com")
	jobID := postJob(t, boss, "Golang Engineer")
	postJob(t, boss, "Designer")

	anon := newClient(t, s)

	rec, body := anon.do(http.MethodGet, "/api/v1/job/?limit=1&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["results"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 2, body["totalPages"])

	rec, _ = anon.do(http.MethodGet, "/api/v1/job/?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = anon.do(http.MethodGet, "/api/v1/job/?page=922337203685477582", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "page is out of range", body["message"])

	rec, body = anon.do(http.MethodGet, "/api/v1/job/search/golang", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["results"])

	rec, body = anon.do(http.MethodGet, "/api/v1/job/search/plumber", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No matching jobs found", body["message"])

	rec, body = anon.do(http.MethodGet, "/api/v1/job/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	job := data(t, body)["job"].(map[string]any)
	assert.Equal(t, "Acme", job["company"])
	assert.Equal(t, false, job["isSaved"])

	rec, body = anon.do(http.MethodGet, "/api/v1/job/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No job found with that id", body["message"])

	rec, body = boss.do(http.MethodPatch, "/api/v1/job/"+jobID, map[string]any{"remote": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, data(t, body)["job"].(map[string]any)["remote"])

	rec, body = boss.do(http.MethodPost, "/api/v1/job/", map[string]any{
		"role":        "Golang Engineer",
		"date":        "2024-05-01",
		"locations":   []string{"Berlin"},
		"description": description(),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You have already posted this role for that date", body["message"])

	rec, body = boss.do(http.MethodGet, "/api/v1/job/employer/my-jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total"])
}

func TestFallbackRoutes(t *testing.T) {
	s := newTestServer(t)
	c := newClient(t, s)

	rec, _ := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")

	rec, body := c.do(http.MethodGet, "/api/v1/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Cannot find this route on this server", body["message"])

	rec, body = c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	checks := data(t, body)["checks"].(map[string]any)
	assert.Equal(t, "up", checks["storage"])
}
