// Package leads provides the lead qualification bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"chatlead_backend/internal/events"
	apphttp "chatlead_backend/internal/http"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/handler"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/leads/service"
	"chatlead_backend/platform/config"
	"chatlead_backend/platform/logger"
	"chatlead_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	scoring *scoring.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.ScoringConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	weights := domain.DefaultWeights()
	if override, ok := cfg.GetScoringWeights(); ok {
		custom, err := domain.NewWeights(override)
		if err != nil {
			return nil, err
		}
		weights = custom
	}

	scoringSvc := scoring.New(repo, weights, log)
	svc := service.New(repo, eventBus, log, service.Config{
		Weights:           weights,
		ScoreVersion:      scoring.Version(),
		FollowUpThreshold: cfg.GetFollowUpThreshold(),
	})

	return &Module{
		handler: handler.New(svc, scoringSvc, val),
		service: svc,
		scoring: scoringSvc,
		repo:    repo,
	}, nil
}

func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// ScoringService returns the scoring service for external use.
func (m *Module) ScoringService() *scoring.Service {
	return m.scoring
}

// Repository returns the leads repository for external use.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Management routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)

	// Capture is public chatbot traffic behind its own rate limiter
	captureGroup := ctx.V1.Group("/leads/capture")
	captureGroup.Use(ctx.CaptureRateLimiter.RateLimit())
	m.handler.RegisterCaptureRoutes(captureGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
