package repository

import (
	"context"
	"time"

	"chatlead_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (Lead, error)
	GetBySessionID(ctx context.Context, sessionID string, organizationID uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	UpdateQualification(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateQualificationParams) (Lead, error)
	UpdateLifecycle(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, state domain.LifecycleState) (Lead, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateMetadataParams) (Lead, error)
	Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error
}

// ScoreWriter persists recomputed scores, used by rescoring runs.
type ScoreWriter interface {
	UpdateScore(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, score domain.ScoreResult, version string) (Lead, error)
	ListAllIDs(ctx context.Context) ([]LeadRef, error)
}

// FollowUpReader lists leads due for follow-up, used by the scheduler.
type FollowUpReader interface {
	ListFollowUpCandidates(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error)
}

// MetricsReader provides access to lead KPI metrics.
type MetricsReader interface {
	GetMetrics(ctx context.Context, organizationID uuid.UUID) (LeadMetrics, error)
}

// LeadsRepository combines all repository capabilities.
// Prefer depending on the narrower interfaces above.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	ScoreWriter
	FollowUpReader
	MetricsReader
}
