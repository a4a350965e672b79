package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/config"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Context contains deps for all handlers
type Context struct {
	Users   *service.Users
	Jobs    *service.Jobs
	Saved   *service.Registries
	Applied *service.Registries
	Tokens  *auth.Tokens
	Revoker auth.Revoker
	Checks  map[string]Pinger
	Config  *config.Config
	Logger  *zap.Logger
}
