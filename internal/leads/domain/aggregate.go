package domain

import (
	"strings"
	"time"

	"chatlead_backend/platform/apperr"

	"github.com/google/uuid"
)

// LeadAggregate is the immutable composition root for a captured lead. It
// owns one qualification snapshot, one score result, and one lifecycle
// state. Every mutation method returns a brand-new aggregate value with
// UpdatedAt refreshed; a failed mutation leaves the original untouched.
type LeadAggregate struct {
	ID              uuid.UUID
	SessionID       string
	OrganizationID  uuid.UUID
	ChatbotConfigID string

	Snapshot  QualificationSnapshot
	Score     ScoreResult
	Lifecycle LifecycleState

	Tags                []string
	Notes               string
	ConversationSummary string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLead builds an aggregate at lead capture: facts are validated, the
// initial score is computed, and the lifecycle starts at status new.
// Malformed input fails here at the boundary, never inside scoring math.
func NewLead(id uuid.UUID, sessionID string, organizationID uuid.UUID, chatbotConfigID string, snapshot QualificationSnapshot, weights ScoringWeights, now time.Time) (LeadAggregate, error) {
	if id == uuid.Nil {
		return LeadAggregate{}, apperr.Validation("lead id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return LeadAggregate{}, apperr.Validation("session id is required")
	}
	if organizationID == uuid.Nil {
		return LeadAggregate{}, apperr.Validation("organization id is required")
	}
	if strings.TrimSpace(chatbotConfigID) == "" {
		return LeadAggregate{}, apperr.Validation("chatbot config id is required")
	}
	if err := snapshot.Validate(); err != nil {
		return LeadAggregate{}, err
	}
	if err := weights.Validate(); err != nil {
		return LeadAggregate{}, err
	}

	return LeadAggregate{
		ID:              id,
		SessionID:       sessionID,
		OrganizationID:  organizationID,
		ChatbotConfigID: chatbotConfigID,
		Snapshot:        snapshot.clone(),
		Score:           CalculateScore(snapshot, weights),
		Lifecycle:       NewLifecycleState(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// WithUpdatedQualification replaces the qualification facts and recomputes
// the score, returning a new aggregate value.
func (l LeadAggregate) WithUpdatedQualification(snapshot QualificationSnapshot, weights ScoringWeights, now time.Time) (LeadAggregate, error) {
	if err := snapshot.Validate(); err != nil {
		return LeadAggregate{}, err
	}
	if err := weights.Validate(); err != nil {
		return LeadAggregate{}, err
	}

	next := l.copyValue()
	next.Snapshot = snapshot.clone()
	next.Score = CalculateScore(snapshot, weights)
	next.UpdatedAt = now
	return next, nil
}

// WithFollowUpStatus applies a lifecycle transition, failing the same way
// ApplyTransition does.
func (l LeadAggregate) WithFollowUpStatus(target FollowUpStatus, now time.Time) (LeadAggregate, error) {
	lifecycle, err := ApplyTransition(l.Lifecycle, target, now)
	if err != nil {
		return LeadAggregate{}, err
	}

	next := l.copyValue()
	next.Lifecycle = lifecycle
	next.UpdatedAt = now
	return next, nil
}

// AssignTo sets the owner without touching the follow-up status.
func (l LeadAggregate) AssignTo(userID uuid.UUID, now time.Time) LeadAggregate {
	next := l.copyValue()
	owner := userID
	next.Lifecycle.AssignedTo = &owner
	next.Lifecycle.UpdatedAt = now
	next.UpdatedAt = now
	return next
}

// Unassign clears the owner without touching the follow-up status.
func (l LeadAggregate) Unassign(now time.Time) LeadAggregate {
	next := l.copyValue()
	next.Lifecycle.AssignedTo = nil
	next.Lifecycle.UpdatedAt = now
	next.UpdatedAt = now
	return next
}

// WithMetadata replaces the free-form metadata, returning a new value.
func (l LeadAggregate) WithMetadata(tags []string, notes, conversationSummary string, now time.Time) LeadAggregate {
	next := l.copyValue()
	next.Tags = nil
	if tags != nil {
		next.Tags = make([]string, len(tags))
		copy(next.Tags, tags)
	}
	next.Notes = notes
	next.ConversationSummary = conversationSummary
	next.UpdatedAt = now
	return next
}

// NeedsFollowUp applies the lifecycle predicate using the aggregate's own
// capture time.
func (l LeadAggregate) NeedsFollowUp(now time.Time, threshold time.Duration) bool {
	return NeedsFollowUp(l.Lifecycle, l.CreatedAt, now, threshold)
}

// copyValue deep-copies the aggregate so updates never share slice or
// pointer storage with the previous value.
func (l LeadAggregate) copyValue() LeadAggregate {
	next := l
	next.Snapshot = l.Snapshot.clone()
	if l.Tags != nil {
		next.Tags = make([]string, len(l.Tags))
		copy(next.Tags, l.Tags)
	}
	if l.Lifecycle.AssignedTo != nil {
		owner := *l.Lifecycle.AssignedTo
		next.Lifecycle.AssignedTo = &owner
	}
	if l.Lifecycle.LastContactedAt != nil {
		contacted := *l.Lifecycle.LastContactedAt
		next.Lifecycle.LastContactedAt = &contacted
	}
	return next
}
