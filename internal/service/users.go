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
	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

type SignupInput struct {
	Email           string      `validate:"required,email"`
	Password        string      `validate:"required,min=8,max=15"`
	PasswordConfirm string      `validate:"required,eqfield=Password"`
	Role            models.Role `validate:"required,role"`
	FirstName       string      `validate:"required"`
	LastName        string      `validate:"required"`
	Company         string      `validate:"required_if=Role employer"`
}

type ChangePasswordInput struct {
	CurrentPassword    string `validate:"required"`
	NewPassword        string `validate:"required"`
	NewPasswordConfirm string `validate:"required"`
}

type Users struct {
	store     Store
	passwords *auth.Passwords
	logger    *zap.Logger
	now       func() time.Time
}

func NewUsers(store Store, passwords *auth.Passwords, logger *zap.Logger) *Users {
	return &Users{
		store:     store,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Users) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// Signup creates the user and, for employees, both job lists in one transaction.
func (s *Users) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Company = strings.TrimSpace(in.Company)
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}

	if err := checkInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Role:      in.Role,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Role == models.RoleEmployer {
		user.Company = &in.Company
	}

	if err := s.setPassword(user, in.Password); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}

		if user.Role != models.RoleEmployee {
			return nil
		}

		for _, kind := range []models.RegistryKind{models.SavedRegistry, models.AppliedRegistry} {
			reg := newRegistry(user.ID, now)
			if err := tx.CreateRegistry(ctx, kind, reg); err != nil {
				return err
			}
			if err := tx.SetRegistryID(ctx, user.ID, kind, reg.ID); err != nil {
				return err
			}
			user.SetRegistryID(kind, reg.ID)
		}

		return nil
	})
	if errors.Is(err, ErrDuplicate) {
		return nil, apperr.New(apperr.Conflict, "An account with this email already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.logger.Info("user signed up",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// Login reports a missing account and a wrong password with different messages,
// both as 401.
func (s *Users) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "Please provide both email and password.")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.Unauthorized, "User does not exist. Please signup first.")
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		s.logger.Warn("login with wrong password", zap.String("user_id", user.ID))
		return nil, apperr.New(apperr.Unauthorized, "Incorrect password. Please try again")
	}

	return user, nil
}

func (s *Users) ChangePassword(ctx context.Context, user *models.User, in ChangePasswordInput) (*models.User, error) {
	if err := checkInput(in); err != nil {
		return nil, apperr.New(apperr.Validation, "Please provide current password, new password, and confirmation")
	}

	if in.NewPassword != in.NewPasswordConfirm {
		return nil, apperr.New(apperr.Validation, "New password and confirmation do not match")
	}

	if n := len(in.NewPassword); n < 8 || n > 15 {
		return nil, apperr.New(apperr.Validation, "New password must be between 8 and 15 characters long")
	}

	current, err := s.store.GetUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("change password: %w", err)
	}
	if current == nil {
		return nil, apperr.New(apperr.NotFound, "User not found")
	}

	if !s.passwords.Verify(in.CurrentPassword, current.PasswordHash) {
		return nil, apperr.New(apperr.Unauthorized, "Current password is incorrect")
	}

	if err := s.setPassword(current, in.NewPassword); err != nil {
		return nil, err
	}

	if err := s.store.UpdatePassword(ctx, current.ID, current.PasswordHash, *current.PasswordChangedAt); err != nil {
		return nil, fmt.Errorf("change password: %w", err)
	}

	s.logger.Info("password changed", zap.String("user_id", current.ID))
	return current, nil
}

// setPassword is the only place a password is hashed onto a user. Replacing an
// existing hash stamps PasswordChangedAt, which invalidates older tokens.
func (s *Users) setPassword(user *models.User, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Failed to update password", err)
	}

	if user.PasswordHash != "" {
		now := s.now().Truncate(time.Microsecond)
		user.PasswordChangedAt = &now
	}
	user.PasswordHash = hash

	return nil
}

func (s *Users) Stats(ctx context.Context, user *models.User) (*models.UserStats, error) {
	stats := &models.UserStats{}

	switch user.Role {
	case models.RoleEmployee:
		saved, err := s.registryLen(ctx, models.SavedRegistry, user.ID)
		if err != nil {
			return nil, err
		}
		applied, err := s.registryLen(ctx, models.AppliedRegistry, user.ID)
		if err != nil {
			return nil, err
		}
		stats.SavedJobs = &saved
		stats.AppliedJobs = &applied

	case models.RoleEmployer:
		_, active, err := s.store.ListJobsByEmployer(ctx, user.ID, 0, 1)
		if err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
		applicants, err := s.store.CountApplicantsForEmployer(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
		stats.ActiveJobs = &active
		stats.Applicants = &applicants
	}

	return stats, nil
}

func (s *Users) registryLen(ctx context.Context, kind models.RegistryKind, userID string) (int, error) {
	reg, err := s.store.GetRegistryByUser(ctx, kind, userID)
	if err != nil {
		return 0, fmt.Errorf("stats: %w", err)
	}
	if reg == nil {
		return 0, nil
	}
	return len(reg.Jobs), nil
}
