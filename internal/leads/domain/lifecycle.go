package domain

import (
	"fmt"
	"time"

	"chatlead_backend/platform/apperr"

	"github.com/google/uuid"
)

// FollowUpStatus is the sales lifecycle stage of a lead.
type FollowUpStatus string

const (
	StatusNew        FollowUpStatus = "new"
	StatusContacted  FollowUpStatus = "contacted"
	StatusInProgress FollowUpStatus = "in_progress"
	StatusConverted  FollowUpStatus = "converted"
	StatusLost       FollowUpStatus = "lost"
	StatusNurturing  FollowUpStatus = "nurturing"
)

// DefaultFollowUpThreshold is how long a lead may sit without contact before
// it needs follow-up, unless the caller supplies a different threshold.
const DefaultFollowUpThreshold = 7 * 24 * time.Hour

// transitionTable lists the legal target statuses per source status.
// converted is terminal and has no outgoing edges.
var transitionTable = map[FollowUpStatus][]FollowUpStatus{
	StatusNew:        {StatusContacted, StatusInProgress, StatusLost},
	StatusContacted:  {StatusInProgress, StatusConverted, StatusLost, StatusNurturing},
	StatusInProgress: {StatusConverted, StatusLost, StatusNurturing},
	StatusLost:       {StatusNurturing},
	StatusNurturing:  {StatusContacted, StatusInProgress, StatusLost},
	StatusConverted:  {},
}

// statusPriority ranks statuses for worklist ordering; lower sorts first.
var statusPriority = map[FollowUpStatus]int{
	StatusNew:        1,
	StatusContacted:  2,
	StatusInProgress: 3,
	StatusNurturing:  4,
	StatusLost:       5,
	StatusConverted:  6,
}

// IsKnownStatus reports whether status is one of the closed set.
func IsKnownStatus(status FollowUpStatus) bool {
	_, ok := transitionTable[status]
	return ok
}

// IsTerminalStatus reports whether status has no outgoing transitions.
func IsTerminalStatus(status FollowUpStatus) bool {
	return IsKnownStatus(status) && len(transitionTable[status]) == 0
}

// ValidateTransition reports whether target is reachable from current.
func ValidateTransition(current, target FollowUpStatus) bool {
	for _, allowed := range transitionTable[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// NextValidStatuses returns the statuses reachable from current. The result
// is a copy; callers may not mutate the transition table through it.
func NextValidStatuses(current FollowUpStatus) []FollowUpStatus {
	allowed := transitionTable[current]
	out := make([]FollowUpStatus, len(allowed))
	copy(out, allowed)
	return out
}

// StatusPriority returns the worklist sort rank for a status. Unknown
// statuses sort last.
func StatusPriority(status FollowUpStatus) int {
	if p, ok := statusPriority[status]; ok {
		return p
	}
	return len(statusPriority) + 1
}

// LifecycleState is the immutable follow-up state of a lead. It is created
// at capture with status new and only superseded by new values produced by
// ApplyTransition or the aggregate's assignment methods.
type LifecycleState struct {
	FollowUpStatus  FollowUpStatus
	AssignedTo      *uuid.UUID
	LastContactedAt *time.Time
	UpdatedAt       time.Time
}

// NewLifecycleState returns the initial state set at lead capture.
func NewLifecycleState(now time.Time) LifecycleState {
	return LifecycleState{FollowUpStatus: StatusNew, UpdatedAt: now}
}

// ApplyTransition validates and applies a status transition, returning a new
// state value. An illegal transition is rejected with a business-rule
// violation carrying the attempted from/to pair; it never silently clamps
// or no-ops. A valid transition to contacted stamps LastContactedAt as part
// of the same state update.
func ApplyTransition(state LifecycleState, target FollowUpStatus, now time.Time) (LifecycleState, error) {
	if !IsKnownStatus(target) {
		return LifecycleState{}, apperr.Validation("unknown follow-up status: " + string(target))
	}
	if !ValidateTransition(state.FollowUpStatus, target) {
		return LifecycleState{}, apperr.New(apperr.KindConflict, fmt.Sprintf(
			"illegal follow-up transition from %s to %s", state.FollowUpStatus, target,
		)).WithDetails(map[string]string{
			"from": string(state.FollowUpStatus),
			"to":   string(target),
		})
	}

	next := state
	next.FollowUpStatus = target
	next.UpdatedAt = now
	if target == StatusContacted {
		contactedAt := now
		next.LastContactedAt = &contactedAt
	}
	return next, nil
}

// NeedsFollowUp reports whether a lead requires follow-up at the given time.
// New leads always do; converted and lost leads never do; otherwise the
// elapsed time since last contact (or since capture if never contacted) is
// compared against the threshold.
func NeedsFollowUp(state LifecycleState, createdAt, now time.Time, threshold time.Duration) bool {
	switch state.FollowUpStatus {
	case StatusNew:
		return true
	case StatusConverted, StatusLost:
		return false
	}

	if threshold <= 0 {
		threshold = DefaultFollowUpThreshold
	}

	reference := createdAt
	if state.LastContactedAt != nil {
		reference = *state.LastContactedAt
	}
	return now.Sub(reference) >= threshold
}
