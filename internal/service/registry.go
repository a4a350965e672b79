package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

// Registries maintains one kind of per-user job list (saved or applied).
type Registries struct {
	kind   models.RegistryKind
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewRegistries(kind models.RegistryKind, store Store, logger *zap.Logger) *Registries {
	return &Registries{
		kind:   kind,
		store:  store,
		logger: logger.With(zap.String("registry", string(kind))),
		now:    time.Now,
	}
}

func (r *Registries) Kind() models.RegistryKind {
	return r.kind
}

func newRegistry(userID string, now time.Time) *models.Registry {
	return &models.Registry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Jobs:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddJob appends jobID to the owner's list. A missing list is created on the fly
// and the owner's pointer repaired, so a half-finished signup never blocks saving.
func (r *Registries) AddJob(ctx context.Context, owner *models.User, jobID string) (*models.PopulatedRegistry, error) {
	if jobID == "" {
		return nil, apperr.Newf(apperr.Validation, "JobId is needed to %s the job", r.verb())
	}

	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("add %s job: %w", r.kind, err)
	}
	if job == nil {
		return nil, apperr.New(apperr.NotFound, "No job found with that id")
	}

	reg, err := r.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}

	if reg == nil {
		reg, err = r.provision(ctx, owner)
		if err != nil {
			return nil, err
		}
	}

	added, err := r.store.AddRegistryJob(ctx, r.kind, reg.ID, job.ID)
	if err != nil {
		return nil, fmt.Errorf("add %s job: %w", r.kind, err)
	}
	if !added {
		return nil, apperr.Newf(apperr.Conflict, "Job is already %s", r.kind).WithStatus(http.StatusBadRequest)
	}

	r.logger.Info("job added",
		zap.String("user_id", owner.ID),
		zap.String("job_id", job.ID),
	)

	return r.reload(ctx, reg.ID)
}

// RemoveJob drops jobID from the owner's list. It never creates a list.
func (r *Registries) RemoveJob(ctx context.Context, owner *models.User, jobID string) (*models.PopulatedRegistry, error) {
	if jobID == "" {
		return nil, apperr.New(apperr.Validation, "Please provide id of the Job.")
	}

	reg, err := r.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperr.Newf(apperr.NotFound, "%s jobs list doesn't exist for this user", r.kind)
	}

	removed, err := r.store.RemoveRegistryJob(ctx, r.kind, reg.ID, jobID)
	if err != nil {
		return nil, fmt.Errorf("remove %s job: %w", r.kind, err)
	}
	if !removed {
		return nil, apperr.Newf(apperr.NotModified, "Job was not %s", r.kind)
	}

	r.logger.Info("job removed",
		zap.String("user_id", owner.ID),
		zap.String("job_id", jobID),
	)

	return r.reload(ctx, reg.ID)
}

// List returns one page of the owner's list in stored order.
func (r *Registries) List(ctx context.Context, ownerID string, page Page) (Paged[models.Job], error) {
	page, err := page.Normalize()
	if err != nil {
		return Paged[models.Job]{}, err
	}

	reg, err := r.store.GetRegistryByUser(ctx, r.kind, ownerID)
	if err != nil {
		return Paged[models.Job]{}, fmt.Errorf("list %s jobs: %w", r.kind, err)
	}
	if reg == nil {
		return newPaged[models.Job](nil, page, 0), nil
	}

	total := len(reg.Jobs)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)

	jobs, err := r.lookup(ctx, reg.Jobs[start:end])
	if err != nil {
		return Paged[models.Job]{}, fmt.Errorf("list %s jobs: %w", r.kind, err)
	}

	return newPaged(jobs, page, total), nil
}

// Members returns the set of job ids in the user's list.
func (r *Registries) Members(ctx context.Context, userID string) (map[string]bool, error) {
	reg, err := r.store.GetRegistryByUser(ctx, r.kind, userID)
	if err != nil {
		return nil, fmt.Errorf("%s members: %w", r.kind, err)
	}

	set := make(map[string]bool)
	if reg != nil {
		for _, id := range reg.Jobs {
			set[id] = true
		}
	}
	return set, nil
}

// resolve finds the owner's list by stored pointer, falling back to ownership.
func (r *Registries) resolve(ctx context.Context, owner *models.User) (*models.Registry, error) {
	if id := owner.RegistryID(r.kind); id != nil && *id != "" {
		reg, err := r.store.GetRegistry(ctx, r.kind, *id)
		if err != nil {
			return nil, fmt.Errorf("get %s registry: %w", r.kind, err)
		}
		if reg != nil && reg.UserID == owner.ID {
			return reg, nil
		}
	}

	reg, err := r.store.GetRegistryByUser(ctx, r.kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("get %s registry: %w", r.kind, err)
	}
	if reg != nil {
		r.repairPointer(ctx, owner, reg.ID)
	}

	return reg, nil
}

func (r *Registries) provision(ctx context.Context, owner *models.User) (*models.Registry, error) {
	reg := newRegistry(owner.ID, r.now())
	err := r.store.CreateRegistry(ctx, r.kind, reg)
	if errors.Is(err, ErrDuplicate) {
		// another request created it first
		won, err := r.store.GetRegistryByUser(ctx, r.kind, owner.ID)
		if err != nil {
			return nil, fmt.Errorf("get %s registry: %w", r.kind, err)
		}
		if won == nil {
			return nil, fmt.Errorf("create %s registry: %w", r.kind, ErrDuplicate)
		}
		r.repairPointer(ctx, owner, won.ID)
		return won, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s registry: %w", r.kind, err)
	}

	r.logger.Warn("registry missing, created lazily", zap.String("user_id", owner.ID))
	r.repairPointer(ctx, owner, reg.ID)

	return reg, nil
}

// repairPointer is best effort; lists are always reachable through their owner.
func (r *Registries) repairPointer(ctx context.Context, owner *models.User, registryID string) {
	if id := owner.RegistryID(r.kind); id != nil && *id == registryID {
		return
	}

	if err := r.store.SetRegistryID(ctx, owner.ID, r.kind, registryID); err != nil {
		r.logger.Error("failed to repair registry pointer",
			zap.String("user_id", owner.ID),
			zap.Error(err),
		)
		return
	}
	owner.SetRegistryID(r.kind, registryID)
}

func (r *Registries) reload(ctx context.Context, id string) (*models.PopulatedRegistry, error) {
	reg, err := r.store.GetRegistry(ctx, r.kind, id)
	if err != nil {
		return nil, fmt.Errorf("get %s registry: %w", r.kind, err)
	}
	if reg == nil {
		return nil, apperr.Newf(apperr.NotFound, "%s jobs list doesn't exist for this user", r.kind)
	}
	return r.populate(ctx, reg)
}

func (r *Registries) populate(ctx context.Context, reg *models.Registry) (*models.PopulatedRegistry, error) {
	jobs, err := r.lookup(ctx, reg.Jobs)
	if err != nil {
		return nil, fmt.Errorf("populate %s registry: %w", r.kind, err)
	}

	return &models.PopulatedRegistry{
		ID:        reg.ID,
		UserID:    reg.UserID,
		Jobs:      jobs,
		UpdatedAt: reg.UpdatedAt,
	}, nil
}

// lookup loads jobs for ids in the given order, skipping ids that no longer resolve.
func (r *Registries) lookup(ctx context.Context, ids []string) ([]models.Job, error) {
	if len(ids) == 0 {
		return []models.Job{}, nil
	}

	found, err := r.store.GetJobsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Job, len(found))
	for _, job := range found {
		byID[job.ID] = job
	}

	jobs := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		if job, ok := byID[id]; ok {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

func (r *Registries) verb() string {
	if r.kind == models.AppliedRegistry {
		return "apply to"
	}
	return "save"
}
