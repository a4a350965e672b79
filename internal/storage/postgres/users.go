package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

var registryColumns = map[models.RegistryKind]string{
	models.SavedRegistry:   "saved_jobs_id",
	models.AppliedRegistry: "applied_jobs_id",
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.runner.
		InsertInto("users").
		Columns("id", "email", "password_hash", "role", "first_name", "last_name",
			"company", "saved_jobs_id", "applied_jobs_id", "created_at", "updated_at").
		Values(user.ID, user.Email, user.PasswordHash, string(user.Role), user.FirstName, user.LastName,
			user.Company, user.SavedJobsID, user.AppliedJobsID, user.CreatedAt, user.UpdatedAt).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to create user",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return fmt.Errorf("create user: %w", translate(err))
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUserBy(ctx, "id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserBy(ctx, "email = ?", email)
}

func (s *Store) getUserBy(ctx context.Context, cond string, value string) (*models.User, error) {
	var user models.User

	err := s.runner.
		Select("*").
		From("users").
		Where(cond, value).
		LoadOneContext(ctx, &user)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get user",
			zap.String("where", cond),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (s *Store) SetRegistryID(ctx context.Context, userID string, kind models.RegistryKind, registryID string) error {
	column, ok := registryColumns[kind]
	if !ok {
		return fmt.Errorf("set registry id: unknown kind %q", kind)
	}

	_, err := s.runner.
		Update("users").
		Set(column, registryID).
		Set("updated_at", time.Now()).
		Where("id = ?", userID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to set registry id",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return fmt.Errorf("set registry id: %w", err)
	}

	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string, changedAt time.Time) error {
	_, err := s.runner.
		Update("users").
		Set("password_hash", hash).
		Set("password_changed_at", changedAt).
		Set("updated_at", changedAt).
		Where("id = ?", userID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update password",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password updated", zap.String("user_id", userID))
	return nil
}
