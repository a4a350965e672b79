package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.runner.
		InsertInto("jobs").
		Columns("id", "role", "company", "date", "locations", "description",
			"remote", "employer_id", "created_at", "updated_at").
		Values(job.ID, job.Role, job.Company, job.Date, job.Locations, job.Description,
			job.Remote, job.EmployerID, job.CreatedAt, job.UpdatedAt).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to create job",
			zap.String("job_id", job.ID),
			zap.String("employer_id", job.EmployerID),
			zap.Error(err),
		)
		return fmt.Errorf("create job: %w", translate(err))
	}

	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job

	err := s.runner.
		Select("*").
		From("jobs").
		Where("id = ?", id).
		LoadOneContext(ctx, &job)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get job",
			zap.String("job_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get job: %w", err)
	}

	return &job, nil
}

// GetJobsByIDs returns the jobs that still exist, in no particular order.
func (s *Store) GetJobsByIDs(ctx context.Context, ids []string) ([]models.Job, error) {
	var jobs []models.Job

	if len(ids) == 0 {
		return jobs, nil
	}

	_, err := s.runner.
		Select("*").
		From("jobs").
		Where("id = ANY(?)", pq.Array(ids)).
		LoadContext(ctx, &jobs)

	if err != nil {
		s.logger.Error("failed to get jobs by ids",
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get jobs by ids: %w", err)
	}

	return jobs, nil
}

func (s *Store) ListJobs(ctx context.Context, offset, limit int) ([]models.Job, int, error) {
	return s.pageJobs(ctx, nil, offset, limit)
}

func (s *Store) SearchJobs(ctx context.Context, text string, offset, limit int) ([]models.Job, int, error) {
	pattern := "%" + likeEscaper.Replace(text) + "%"
	return s.pageJobs(ctx, dbr.Or(
		dbr.Expr("role ILIKE ?", pattern),
		dbr.Expr("description ILIKE ?", pattern),
	), offset, limit)
}

func (s *Store) ListJobsByEmployer(ctx context.Context, employerID string, offset, limit int) ([]models.Job, int, error) {
	return s.pageJobs(ctx, dbr.Eq("employer_id", employerID), offset, limit)
}

// pageJobs counts matching rows and loads one page of them, newest first.
func (s *Store) pageJobs(ctx context.Context, cond dbr.Builder, offset, limit int) ([]models.Job, int, error) {
	var total int

	count := s.runner.Select("COUNT(*)").From("jobs")
	if cond != nil {
		count = count.Where(cond)
	}
	if err := count.LoadOneContext(ctx, &total); err != nil {
		s.logger.Error("failed to count jobs", zap.Error(err))
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	jobs := []models.Job{}
	if total == 0 {
		return jobs, 0, nil
	}

	query := s.runner.
		Select("*").
		From("jobs").
		OrderDesc("created_at").
		OrderDesc("id").
		Offset(uint64(offset)).
		Limit(uint64(limit))
	if cond != nil {
		query = query.Where(cond)
	}

	if _, err := query.LoadContext(ctx, &jobs); err != nil {
		s.logger.Error("failed to list jobs",
			zap.Int("offset", offset),
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	return jobs, total, nil
}

func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	_, err := s.runner.
		Update("jobs").
		Set("role", job.Role).
		Set("date", job.Date).
		Set("locations", job.Locations).
		Set("description", job.Description).
		Set("remote", job.Remote).
		Set("updated_at", job.UpdatedAt).
		Where("id = ?", job.ID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update job",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return fmt.Errorf("update job: %w", translate(err))
	}

	return nil
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	_, err := s.runner.
		DeleteFrom("jobs").
		Where("id = ?", id).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete job",
			zap.String("job_id", id),
			zap.Error(err),
		)
		return fmt.Errorf("delete job: %w", err)
	}

	return nil
}
