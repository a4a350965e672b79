package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

const dateLayout = "2006-01-02"

var dateLayouts = []string{dateLayout, time.RFC3339, "02/01/2006"}

type JobInput struct {
	Role        string   `validate:"required,max=120"`
	Date        string   `validate:"required"`
	Locations   []string `validate:"required,min=1,dive,required"`
	Description string   `validate:"required,description"`
	Remote      bool
}

// JobPatch holds the fields an employer may change; nil means unchanged.
type JobPatch struct {
	Role        *string
	Date        *string
	Locations   []string
	Description *string
	Remote      *bool
}

type Jobs struct {
	store   Store
	saved   *Registries
	applied *Registries
	logger  *zap.Logger
	now     func() time.Time
}

func NewJobs(store Store, saved, applied *Registries, logger *zap.Logger) *Jobs {
	return &Jobs{
		store:   store,
		saved:   saved,
		applied: applied,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns a page of all jobs. An empty catalogue is an empty page.
func (s *Jobs) List(ctx context.Context, page Page, viewer *models.User) (Paged[models.JobView], error) {
	page, err := page.Normalize()
	if err != nil {
		return Paged[models.JobView]{}, err
	}

	jobs, total, err := s.store.ListJobs(ctx, page.Offset(), page.Limit)
	if err != nil {
		return Paged[models.JobView]{}, fmt.Errorf("list jobs: %w", err)
	}

	views, err := s.annotate(ctx, viewer, jobs)
	if err != nil {
		return Paged[models.JobView]{}, err
	}

	return newPaged(views, page, total), nil
}

// Search matches text against role or description, case-insensitively.
// No match is reported as NotFound.
func (s *Jobs) Search(ctx context.Context, text string, page Page, viewer *models.User) (Paged[models.JobView], error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Paged[models.JobView]{}, apperr.New(apperr.Validation, "Search text is required")
	}

	page, err := page.Normalize()
	if err != nil {
		return Paged[models.JobView]{}, err
	}

	jobs, total, err := s.store.SearchJobs(ctx, text, page.Offset(), page.Limit)
	if err != nil {
		return Paged[models.JobView]{}, fmt.Errorf("search jobs: %w", err)
	}
	if len(jobs) == 0 {
		return Paged[models.JobView]{}, apperr.New(apperr.NotFound, "No matching jobs found")
	}

	views, err := s.annotate(ctx, viewer, jobs)
	if err != nil {
		return Paged[models.JobView]{}, err
	}

	return newPaged(views, page, total), nil
}

func (s *Jobs) Get(ctx context.Context, id string, viewer *models.User) (*models.JobView, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	views, err := s.annotate(ctx, viewer, []models.Job{*job})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

func (s *Jobs) ListByEmployer(ctx context.Context, employer *models.User, page Page) (Paged[models.Job], error) {
	page, err := page.Normalize()
	if err != nil {
		return Paged[models.Job]{}, err
	}

	jobs, total, err := s.store.ListJobsByEmployer(ctx, employer.ID, page.Offset(), page.Limit)
	if err != nil {
		return Paged[models.Job]{}, fmt.Errorf("list employer jobs: %w", err)
	}

	return newPaged(jobs, page, total), nil
}

func (s *Jobs) Create(ctx context.Context, employer *models.User, in JobInput) (*models.Job, error) {
	in = normalizeJobInput(in)
	if err := checkInput(in); err != nil {
		return nil, err
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	company := ""
	if employer.Company != nil {
		company = *employer.Company
	}

	now := s.now()
	job := &models.Job{
		ID:          uuid.NewString(),
		Role:        in.Role,
		Company:     company,
		Date:        date,
		Locations:   in.Locations,
		Description: in.Description,
		Remote:      in.Remote,
		EmployerID:  employer.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, duplicateJob()
		}
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("employer_id", employer.ID),
	)

	return job, nil
}

func (s *Jobs) Update(ctx context.Context, employer *models.User, id string, patch JobPatch) (*models.Job, error) {
	job, err := s.owned(ctx, employer, id, "update")
	if err != nil {
		return nil, err
	}

	in := JobInput{
		Role:        job.Role,
		Date:        job.Date.Format(dateLayout),
		Locations:   job.Locations,
		Description: job.Description,
		Remote:      job.Remote,
	}
	if patch.Role != nil {
		in.Role = *patch.Role
	}
	if patch.Date != nil {
		in.Date = *patch.Date
	}
	if patch.Locations != nil {
		in.Locations = patch.Locations
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	if patch.Remote != nil {
		in.Remote = *patch.Remote
	}

	in = normalizeJobInput(in)
	if err := checkInput(in); err != nil {
		return nil, err
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	job.Role = in.Role
	job.Date = date
	job.Locations = in.Locations
	job.Description = in.Description
	job.Remote = in.Remote
	job.UpdatedAt = s.now()

	if err := s.store.UpdateJob(ctx, job); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, duplicateJob()
		}
		return nil, fmt.Errorf("update job: %w", err)
	}

	s.logger.Info("job updated", zap.String("job_id", job.ID))
	return job, nil
}

// Delete removes the job and every saved/applied reference to it atomically.
func (s *Jobs) Delete(ctx context.Context, employer *models.User, id string) error {
	job, err := s.owned(ctx, employer, id, "delete")
	if err != nil {
		return err
	}

	var unlinked int64
	err = s.store.WithTx(ctx, func(tx Store) error {
		for _, kind := range []models.RegistryKind{models.SavedRegistry, models.AppliedRegistry} {
			n, err := tx.RemoveJobFromRegistries(ctx, kind, job.ID)
			if err != nil {
				return err
			}
			unlinked += n
		}
		return tx.DeleteJob(ctx, job.ID)
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	s.logger.Info("job deleted",
		zap.String("job_id", job.ID),
		zap.Int64("unlinked_lists", unlinked),
	)

	return nil
}

func (s *Jobs) Applicants(ctx context.Context, employer *models.User, id string) (*models.ApplicantsResult, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != employer.ID {
		return nil, apperr.New(apperr.Forbidden, "You can only view applicants for your own job postings")
	}

	rows, err := s.store.ListApplicants(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}

	applicants := make([]models.Applicant, 0, len(rows))
	for _, row := range rows {
		applicants = append(applicants, models.Applicant{
			ApplicationID: row.RegistryID,
			Applicant: models.ApplicantInfo{
				UserID:    row.UserID,
				FirstName: row.FirstName,
				LastName:  row.LastName,
				FullName:  strings.TrimSpace(row.FirstName + " " + row.LastName),
				Email:     row.Email,
			},
			AppliedAt: row.UpdatedAt,
		})
	}

	return &models.ApplicantsResult{
		Applicants: applicants,
		Job: models.JobSummary{
			ID:        job.ID,
			Role:      job.Role,
			Company:   job.Company,
			Locations: job.Locations,
		},
		Count: len(applicants),
	}, nil
}

func (s *Jobs) find(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, apperr.New(apperr.NotFound, "No job found with that id")
	}
	return job, nil
}

func (s *Jobs) owned(ctx context.Context, employer *models.User, id, action string) (*models.Job, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != employer.ID {
		s.logger.Warn("job ownership check failed",
			zap.String("job_id", job.ID),
			zap.String("user_id", employer.ID),
			zap.String("action", action),
		)
		return nil, apperr.Newf(apperr.Forbidden, "You can only %s your own job postings", action)
	}
	return job, nil
}

// annotate marks jobs saved or applied by an employee viewer.
func (s *Jobs) annotate(ctx context.Context, viewer *models.User, jobs []models.Job) ([]models.JobView, error) {
	views := make([]models.JobView, len(jobs))
	for i, job := range jobs {
		views[i] = models.JobView{Job: job}
	}

	if viewer == nil || viewer.Role != models.RoleEmployee || len(jobs) == 0 {
		return views, nil
	}

	saved, err := s.saved.Members(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	applied, err := s.applied.Members(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	for i := range views {
		views[i].IsSaved = saved[views[i].ID]
		views[i].IsApplied = applied[views[i].ID]
	}

	return views, nil
}

func normalizeJobInput(in JobInput) JobInput {
	in.Role = strings.TrimSpace(in.Role)
	in.Date = strings.TrimSpace(in.Date)
	in.Description = strings.TrimSpace(in.Description)

	locations := make([]string, 0, len(in.Locations))
	for _, loc := range in.Locations {
		locations = append(locations, strings.TrimSpace(loc))
	}
	in.Locations = locations

	return in
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, apperr.New(apperr.Validation, "date must be formatted as YYYY-MM-DD")
}

func duplicateJob() error {
	return apperr.New(apperr.Conflict, "You have already posted this role for that date")
}
