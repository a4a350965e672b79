package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/api/handlers"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/api/middleware"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/config"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/storage/redis"
)

// Storage is a service.Store that can report its health.
type Storage interface {
	service.Store
	Ping(ctx context.Context) error
}

// Server represents the HTTP API
type Server struct {
	engine *gin.Engine
	http   *http.Server
	store  Storage
	cache  *redis.Cache
	config *config.Config
	logger *zap.Logger
}

// New wires services and routes. cache may be nil, which disables rate
// limiting and token revocation.
func New(
	cfg *config.Config,
	store Storage,
	cache *redis.Cache,
	logger *zap.Logger,
) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to configure proxies: %w", err)
	}

	s := &Server{
		engine: engine,
		store:  store,
		cache:  cache,
		config: cfg,
		logger: logger,
	}

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.setupMiddleware()

	s.registerRoutes()

	logger.Info("server initialized successfully")

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.engine.Use(middleware.Recovery(s.logger))

	s.engine.Use(middleware.Logger(s.logger))

	s.engine.Use(cors.New(s.corsConfig()))

	s.engine.Use(middleware.Errors(s.config.IsProduction(), s.logger))

	if s.cache != nil {
		s.engine.Use(middleware.RateLimit(s.cache, s.config.RateLimitPerMin, s.logger))
	}
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowCredentials = true
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	if len(s.config.CORSOrigins) > 0 {
		cfg.AllowOrigins = s.config.CORSOrigins
	} else {
		// credentials rule out "*", so echo whatever origin asked
		cfg.AllowOriginFunc = func(string) bool { return true }
	}

	return cfg
}

func (s *Server) registerRoutes() {
	passwords := auth.NewPasswords(s.config.BcryptCost)
	tokens := auth.NewTokens(auth.TokenConfig{
		Secret: s.config.JWTSecret,
		TTL:    s.config.TokenTTL,
	})

	users := service.NewUsers(s.store, passwords, s.logger)
	saved := service.NewRegistries(models.SavedRegistry, s.store, s.logger)
	applied := service.NewRegistries(models.AppliedRegistry, s.store, s.logger)
	jobs := service.NewJobs(s.store, saved, applied, s.logger)

	revoker := auth.NoopRevoker
	checks := map[string]handlers.Pinger{"storage": s.store}
	if s.cache != nil {
		revoker = s.cache
		checks["redis"] = s.cache
	}

	ctx := &handlers.Context{
		Users:   users,
		Jobs:    jobs,
		Saved:   saved,
		Applied: applied,
		Tokens:  tokens,
		Revoker: revoker,
		Checks:  checks,
		Config:  s.config,
		Logger:  s.logger,
	}

	authn := middleware.NewAuthenticator(tokens, users, revoker, s.logger)

	employer := authn.RestrictTo(models.RoleEmployer)
	employee := authn.RestrictTo(models.RoleEmployee)

	s.engine.GET("/", handlers.HandleWelcome(ctx))
	s.engine.GET("/healthz", handlers.HandleHealth(ctx))

	v1 := s.engine.Group("/api/v1")

	user := v1.Group("/user")
	user.POST("/signup", handlers.HandleSignup(ctx))
	user.POST("/login", handlers.HandleLogin(ctx))
	user.POST("/logout", authn.OptionalAuth(), handlers.HandleLogout(ctx))
	user.GET("/", authn.Protect(), handlers.HandleMe(ctx))
	user.GET("/stats", authn.Protect(), handlers.HandleStats(ctx))
	user.PATCH("/change-password", authn.Protect(), handlers.HandleChangePassword(ctx))

	job := v1.Group("/job")
	job.GET("/", authn.OptionalAuth(), handlers.HandleListJobs(ctx))
	job.GET("/search/:text", authn.OptionalAuth(), handlers.HandleSearchJobs(ctx))
	job.GET("/employer/my-jobs", with(employer, handlers.HandleMyJobs(ctx))...)
	job.GET("/:id", authn.OptionalAuth(), handlers.HandleGetJob(ctx))
	job.GET("/:id/applicants", with(employer, handlers.HandleApplicants(ctx))...)
	job.POST("/", with(employer, handlers.HandleCreateJob(ctx))...)
	job.PATCH("/:id", with(employer, handlers.HandleUpdateJob(ctx))...)
	job.DELETE("/:id", with(employer, handlers.HandleDeleteJob(ctx))...)

	for path, reg := range map[string]*service.Registries{
		"/savedjobs":   saved,
		"/appliedjobs": applied,
	} {
		group := v1.Group(path, employee...)
		group.GET("/", handlers.HandleListRegistry(ctx, reg))
		group.POST("/", handlers.HandleAddToRegistry(ctx, reg))
		group.DELETE("/", handlers.HandleRemoveFromRegistry(ctx, reg))
	}

	s.engine.NoRoute(middleware.NotFound())

	s.logger.Info("routes registered")
}

// with appends h to a copy of chain.
func with(chain gin.HandlersChain, h gin.HandlerFunc) gin.HandlersChain {
	out := make(gin.HandlersChain, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, h)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting server...", zap.String("addr", s.http.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
