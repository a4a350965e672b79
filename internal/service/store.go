package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

// ErrDuplicate is returned by stores when a unique constraint is violated.
var ErrDuplicate = errors.New("duplicate key")

// Stores return (nil, nil) when a lookup finds nothing.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetRegistryID(ctx context.Context, userID string, kind models.RegistryKind, registryID string) error
	UpdatePassword(ctx context.Context, userID, hash string, changedAt time.Time) error
}

type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	GetJobsByIDs(ctx context.Context, ids []string) ([]models.Job, error)
	ListJobs(ctx context.Context, offset, limit int) ([]models.Job, int, error)
	SearchJobs(ctx context.Context, text string, offset, limit int) ([]models.Job, int, error)
	ListJobsByEmployer(ctx context.Context, employerID string, offset, limit int) ([]models.Job, int, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, id string) error
}

type RegistryStore interface {
	CreateRegistry(ctx context.Context, kind models.RegistryKind, reg *models.Registry) error
	GetRegistry(ctx context.Context, kind models.RegistryKind, id string) (*models.Registry, error)
	GetRegistryByUser(ctx context.Context, kind models.RegistryKind, userID string) (*models.Registry, error)
	// AddRegistryJob and RemoveRegistryJob change one list atomically and report
	// whether anything changed.
	AddRegistryJob(ctx context.Context, kind models.RegistryKind, id, jobID string) (bool, error)
	RemoveRegistryJob(ctx context.Context, kind models.RegistryKind, id, jobID string) (bool, error)
	RemoveJobFromRegistries(ctx context.Context, kind models.RegistryKind, jobID string) (int64, error)
	ListApplicants(ctx context.Context, jobID string) ([]models.ApplicantRow, error)
	CountApplicantsForEmployer(ctx context.Context, employerID string) (int, error)
}

// Store is the full persistence surface. WithTx runs fn against a store bound to
// one transaction, committing when fn returns nil.
type Store interface {
	UserStore
	JobStore
	RegistryStore
	WithTx(ctx context.Context, fn func(Store) error) error
}
