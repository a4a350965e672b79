package postgres

import (
	"context"
	"fmt"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

var registryTables = map[models.RegistryKind]string{
	models.SavedRegistry:   "saved_jobs",
	models.AppliedRegistry: "applied_jobs",
}

func registryTable(kind models.RegistryKind) (string, error) {
	table, ok := registryTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown registry kind %q", kind)
	}
	return table, nil
}

func (s *Store) CreateRegistry(ctx context.Context, kind models.RegistryKind, reg *models.Registry) error {
	table, err := registryTable(kind)
	if err != nil {
		return err
	}

	jobs := reg.Jobs
	if jobs == nil {
		jobs = pq.StringArray{}
	}

	_, err = s.runner.
		InsertInto(table).
		Columns("id", "user_id", "jobs", "created_at", "updated_at").
		Values(reg.ID, reg.UserID, jobs, reg.CreatedAt, reg.UpdatedAt).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to create registry",
			zap.String("table", table),
			zap.String("user_id", reg.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("create registry: %w", translate(err))
	}

	return nil
}

func (s *Store) GetRegistry(ctx context.Context, kind models.RegistryKind, id string) (*models.Registry, error) {
	return s.getRegistryBy(ctx, kind, "id = ?", id)
}

func (s *Store) GetRegistryByUser(ctx context.Context, kind models.RegistryKind, userID string) (*models.Registry, error) {
	return s.getRegistryBy(ctx, kind, "user_id = ?", userID)
}

func (s *Store) getRegistryBy(ctx context.Context, kind models.RegistryKind, cond, value string) (*models.Registry, error) {
	table, err := registryTable(kind)
	if err != nil {
		return nil, err
	}

	var reg models.Registry

	err = s.runner.
		Select("*").
		From(table).
		Where(cond, value).
		LoadOneContext(ctx, &reg)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get registry",
			zap.String("table", table),
			zap.String("where", cond),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get registry: %w", err)
	}

	return &reg, nil
}

// AddRegistryJob appends jobID in a single statement, so concurrent adds never
// lose or duplicate entries. It reports false when the id is already listed.
func (s *Store) AddRegistryJob(ctx context.Context, kind models.RegistryKind, id, jobID string) (bool, error) {
	table, err := registryTable(kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET jobs = array_append(jobs, ?), updated_at = NOW()
		WHERE id = ? AND NOT (? = ANY(jobs))
	`, table)

	return s.changeRegistry(ctx, "add registry job", table, query, jobID, id, jobID)
}

// RemoveRegistryJob drops jobID from one list and reports whether it was there.
func (s *Store) RemoveRegistryJob(ctx context.Context, kind models.RegistryKind, id, jobID string) (bool, error) {
	table, err := registryTable(kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET jobs = array_remove(jobs, ?), updated_at = NOW()
		WHERE id = ? AND ? = ANY(jobs)
	`, table)

	return s.changeRegistry(ctx, "remove registry job", table, query, jobID, id, jobID)
}

func (s *Store) changeRegistry(ctx context.Context, op, table, query string, args ...interface{}) (bool, error) {
	result, err := s.runner.
		UpdateBySql(query, args...).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to "+op,
			zap.String("table", table),
			zap.Error(err),
		)
		return false, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return affected == 1, nil
}

// RemoveJobFromRegistries strips jobID from every list of the given kind and
// reports how many lists changed.
func (s *Store) RemoveJobFromRegistries(ctx context.Context, kind models.RegistryKind, jobID string) (int64, error) {
	table, err := registryTable(kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET jobs = array_remove(jobs, ?), updated_at = NOW()
		WHERE ? = ANY(jobs)
	`, table)

	result, err := s.runner.
		UpdateBySql(query, jobID, jobID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to remove job from registries",
			zap.String("table", table),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("remove job from registries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove job from registries: %w", err)
	}

	return affected, nil
}

func (s *Store) ListApplicants(ctx context.Context, jobID string) ([]models.ApplicantRow, error) {
	rows := []models.ApplicantRow{}

	query := `
		SELECT a.id AS registry_id, u.id AS user_id, u.first_name, u.last_name, u.email, a.updated_at
		FROM applied_jobs a
		JOIN users u ON u.id = a.user_id
		WHERE ? = ANY(a.jobs)
		ORDER BY a.updated_at DESC
	`

	_, err := s.runner.
		SelectBySql(query, jobID).
		LoadContext(ctx, &rows)

	if err != nil {
		s.logger.Error("failed to list applicants",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list applicants: %w", err)
	}

	return rows, nil
}

func (s *Store) CountApplicantsForEmployer(ctx context.Context, employerID string) (int, error) {
	var count int

	query := `
		SELECT COUNT(*)
		FROM applied_jobs a
		CROSS JOIN LATERAL unnest(a.jobs) AS applied(job_id)
		JOIN jobs j ON j.id = applied.job_id
		WHERE j.employer_id = ?
	`

	err := s.runner.
		SelectBySql(query, employerID).
		LoadOneContext(ctx, &count)

	if err != nil {
		s.logger.Error("failed to count applicants",
			zap.String("employer_id", employerID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("count applicants: %w", err)
	}

	return count, nil
}
