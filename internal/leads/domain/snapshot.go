// Package domain provides core business rules for the leads bounded context:
// qualification scoring and the follow-up lifecycle state machine. Everything
// in this package is pure; persistence and transport live elsewhere.
package domain

import (
	"fmt"

	"chatlead_backend/platform/apperr"
)

// EngagementLevel is the coarse engagement classification captured during
// a chatbot conversation.
type EngagementLevel string

const (
	EngagementLow    EngagementLevel = "low"
	EngagementMedium EngagementLevel = "medium"
	EngagementHigh   EngagementLevel = "high"
)

var knownEngagementLevels = map[EngagementLevel]struct{}{
	EngagementLow:    {},
	EngagementMedium: {},
	EngagementHigh:   {},
}

// IsKnownEngagementLevel reports whether level is one of the closed set.
func IsKnownEngagementLevel(level EngagementLevel) bool {
	_, ok := knownEngagementLevels[level]
	return ok
}

// DisqualifyingFactor is a tagged fact that forces a lead to tier
// disqualified regardless of its numeric score.
type DisqualifyingFactor string

const (
	DisqualifyNoBudget      DisqualifyingFactor = "no_budget"
	DisqualifyNoTimeline    DisqualifyingFactor = "no_timeline"
	DisqualifyWrongIndustry DisqualifyingFactor = "wrong_industry"
	DisqualifyCompetitor    DisqualifyingFactor = "competitor"
	DisqualifySpam          DisqualifyingFactor = "spam"
)

// QualificationSnapshot holds the immutable qualification facts collected
// during a single chatbot conversation. A snapshot is a value: updating a
// lead's facts produces a new snapshot, never mutates one in place.
type QualificationSnapshot struct {
	AnsweredQuestions      int
	TotalQuestions         int
	EngagementScore        float64 // 0-100
	ConversationLength     int
	SessionDurationSeconds int

	HasContactInfo     bool
	HasBudgetInfo      bool
	HasTimelineInfo    bool
	HasIndustryInfo    bool
	HasCompanySizeInfo bool

	EngagementLevel EngagementLevel
	IsDecisionMaker bool

	DisqualifyingFactors []DisqualifyingFactor
}

// Validate checks the snapshot invariants. It returns a validation error
// before any scoring math runs; values are never silently coerced.
func (s QualificationSnapshot) Validate() error {
	if s.AnsweredQuestions < 0 || s.TotalQuestions < 0 {
		return apperr.Validation("question counts must be non-negative")
	}
	if s.AnsweredQuestions > s.TotalQuestions {
		return apperr.Validation(fmt.Sprintf(
			"answered questions (%d) cannot exceed total questions (%d)",
			s.AnsweredQuestions, s.TotalQuestions))
	}
	if s.EngagementScore < 0 || s.EngagementScore > 100 {
		return apperr.Validation("engagement score must be between 0 and 100")
	}
	if s.ConversationLength < 0 || s.SessionDurationSeconds < 0 {
		return apperr.Validation("conversation length and session duration must be non-negative")
	}
	if !IsKnownEngagementLevel(s.EngagementLevel) {
		return apperr.Validation("unknown engagement level: " + string(s.EngagementLevel))
	}
	return nil
}

// IsDisqualified reports whether any disqualifying factor is present.
func (s QualificationSnapshot) IsDisqualified() bool {
	return len(s.DisqualifyingFactors) > 0
}

// clone returns a deep copy so aggregate updates never alias the previous
// value's slice storage.
func (s QualificationSnapshot) clone() QualificationSnapshot {
	out := s
	if s.DisqualifyingFactors != nil {
		out.DisqualifyingFactors = make([]DisqualifyingFactor, len(s.DisqualifyingFactors))
		copy(out.DisqualifyingFactors, s.DisqualifyingFactors)
	}
	return out
}
