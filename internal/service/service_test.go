package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	users   *service.Users
	jobs    *service.Jobs
	saved   *service.Registries
	applied *service.Registries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zap.NewNop()
	store := memory.New()
	saved := service.NewRegistries(models.SavedRegistry, store, logger)
	applied := service.NewRegistries(models.AppliedRegistry, store, logger)

	return &fixture{
		store:   store,
		users:   service.NewUsers(store, auth.NewPasswords(bcrypt.MinCost), logger),
		jobs:    service.NewJobs(store, saved, applied, logger),
		saved:   saved,
		applied: applied,
	}
}

func description() string {
	return strings.Repeat("Build and operate reliable backend services. ", 6)
}

func (f *fixture) employee(t *testing.T, email string) *models.User {
	t.Helper()

	u, err := f.users.Signup(context.Background(), service.SignupInput{
		Email:           email,
		Password:        "password1",
		PasswordConfirm: "password1",
		Role:            models.RoleEmployee,
		FirstName:       "Ann",
		LastName:        "Lee",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) employer(t *testing.T, email string) *models.User {
	t.Helper()

	u, err := f.users.Signup(context.Background(), service.SignupInput{
		Email:           email,
		Password:        "password1",
		PasswordConfirm: "password1",
		Role:            models.RoleEmployer,
		FirstName:       "Bo",
		LastName:        "Kim",
		Company:         "Acme",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) job(t *testing.T, employer *models.User, role string) *models.Job {
	t.Helper()

	j, err := f.jobs.Create(context.Background(), employer, service.JobInput{
		Role:        role,
		Date:        "2024-05-01",
		Locations:   []string{"Berlin"},
		Description: description(),
	})
	require.NoError(t, err)
	return j
}

func assertKind(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()

	e, ok := apperr.As(err)
	require.True(t, ok, "expected app error, got %v", err)
	assert.Equal(t, kind, e.Kind)
	if message != "" {
		assert.Equal(t, message, e.Message)
	}
}
