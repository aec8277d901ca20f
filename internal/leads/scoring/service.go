package scoring

import (
	"context"
	"time"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"
)

// Version returns the current scoring model version.
func Version() string { return scoreVersion }

// Result holds the outcome of a scoring run for one lead.
type Result struct {
	Score         int
	PreviousScore int
	Tier          domain.QualificationTier
	Breakdown     domain.ScoreBreakdown
	Version       string
	UpdatedAt     time.Time
}

// Service recomputes persisted lead scores from their stored qualification
// facts. Capture-time scoring happens in the domain; this service exists for
// rescoring after weight changes or scoring model bumps.
type Service struct {
	repo    repository.LeadsRepository
	weights domain.ScoringWeights
	log     *logger.Logger
}

// New creates a new scoring service.
func New(repo repository.LeadsRepository, weights domain.ScoringWeights, log *logger.Logger) *Service {
	return &Service{repo: repo, weights: weights, log: log}
}

// Recalculate recomputes the score for a single lead from its stored
// snapshot and persists the result.
func (s *Service) Recalculate(ctx context.Context, leadID uuid.UUID, organizationID uuid.UUID) (*Result, error) {
	lead, err := s.repo.GetByID(ctx, leadID, organizationID)
	if err != nil {
		return nil, err
	}

	score := domain.CalculateScore(lead.Snapshot(), s.weights)

	updated, err := s.repo.UpdateScore(ctx, leadID, organizationID, score, scoreVersion)
	if err != nil {
		return nil, err
	}

	if s.log != nil && score.Score != lead.Score {
		s.log.LeadScored(leadID.String(), score.Score, string(score.Tier))
	}

	return &Result{
		Score:         score.Score,
		PreviousScore: lead.Score,
		Tier:          score.Tier,
		Breakdown:     score.Breakdown,
		Version:       scoreVersion,
		UpdatedAt:     updated.UpdatedAt,
	}, nil
}

// RecalculateAll rescores every lead in the database. Errors on individual
// leads are logged and skipped so one bad row does not abort a backfill.
func (s *Service) RecalculateAll(ctx context.Context) (processed, changed int, err error) {
	refs, err := s.repo.ListAllIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, ref := range refs {
		if ctx.Err() != nil {
			return processed, changed, ctx.Err()
		}

		result, err := s.Recalculate(ctx, ref.ID, ref.OrganizationID)
		if err != nil {
			if s.log != nil {
				s.log.Error("lead rescore failed", "leadId", ref.ID, "error", err)
			}
			continue
		}

		processed++
		if result.Score != result.PreviousScore {
			changed++
		}
	}

	return processed, changed, nil
}
