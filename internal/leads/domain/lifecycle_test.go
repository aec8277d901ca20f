package domain

import (
	"errors"
	"testing"
	"time"

	"chatlead_backend/platform/apperr"
)

var allStatuses = []FollowUpStatus{
	StatusNew, StatusContacted, StatusInProgress, StatusConverted, StatusLost, StatusNurturing,
}

func TestValidateTransition(t *testing.T) {
	legal := map[FollowUpStatus]map[FollowUpStatus]bool{
		StatusNew:        {StatusContacted: true, StatusInProgress: true, StatusLost: true},
		StatusContacted:  {StatusInProgress: true, StatusConverted: true, StatusLost: true, StatusNurturing: true},
		StatusInProgress: {StatusConverted: true, StatusLost: true, StatusNurturing: true},
		StatusLost:       {StatusNurturing: true},
		StatusNurturing:  {StatusContacted: true, StatusInProgress: true, StatusLost: true},
		StatusConverted:  {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legal[from][to]
			if got := ValidateTransition(from, to); got != want {
				t.Errorf("ValidateTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestConvertedIsTerminal(t *testing.T) {
	if !IsTerminalStatus(StatusConverted) {
		t.Error("converted should be terminal")
	}
	if n := len(NextValidStatuses(StatusConverted)); n != 0 {
		t.Errorf("converted has %d outgoing transitions, want 0", n)
	}
	for _, status := range allStatuses {
		if status != StatusConverted && IsTerminalStatus(status) {
			t.Errorf("%s reported terminal", status)
		}
	}
}

func TestNextValidStatusesReturnsCopy(t *testing.T) {
	first := NextValidStatuses(StatusNew)
	first[0] = StatusConverted
	second := NextValidStatuses(StatusNew)
	if second[0] == StatusConverted {
		t.Fatal("mutating the returned slice leaked into the transition table")
	}
}

func TestApplyTransitionStampsLastContacted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := NewLifecycleState(now.Add(-time.Hour))

	next, err := ApplyTransition(state, StatusContacted, now)
	if err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}
	if next.FollowUpStatus != StatusContacted {
		t.Errorf("status = %s, want %s", next.FollowUpStatus, StatusContacted)
	}
	if next.LastContactedAt == nil || !next.LastContactedAt.Equal(now) {
		t.Errorf("lastContactedAt = %v, want %v", next.LastContactedAt, now)
	}
	if !next.UpdatedAt.Equal(now) {
		t.Errorf("updatedAt = %v, want %v", next.UpdatedAt, now)
	}
	// The previous state value is untouched.
	if state.FollowUpStatus != StatusNew || state.LastContactedAt != nil {
		t.Error("original state mutated")
	}
}

func TestApplyTransitionDoesNotStampOtherTargets(t *testing.T) {
	now := time.Now().UTC()
	state := NewLifecycleState(now)

	next, err := ApplyTransition(state, StatusInProgress, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}
	if next.LastContactedAt != nil {
		t.Error("transition to in_progress must not stamp lastContactedAt")
	}
}

func TestApplyTransitionIllegal(t *testing.T) {
	now := time.Now().UTC()
	state := LifecycleState{FollowUpStatus: StatusConverted, UpdatedAt: now}

	_, err := ApplyTransition(state, StatusContacted, now)
	if err == nil {
		t.Fatal("expected error for transition out of converted")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("error type = %T, want *apperr.Error", err)
	}
	if appErr.Kind != apperr.KindConflict {
		t.Errorf("kind = %v, want %v", appErr.Kind, apperr.KindConflict)
	}
	details, ok := appErr.Details.(map[string]string)
	if !ok {
		t.Fatalf("details type = %T, want map[string]string", appErr.Details)
	}
	if details["from"] != string(StatusConverted) || details["to"] != string(StatusContacted) {
		t.Errorf("details = %v, want from/to pair", details)
	}
}

func TestApplyTransitionUnknownTarget(t *testing.T) {
	state := NewLifecycleState(time.Now().UTC())

	_, err := ApplyTransition(state, FollowUpStatus("archived"), time.Now().UTC())
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestStatusPriority(t *testing.T) {
	ordered := []FollowUpStatus{
		StatusNew, StatusContacted, StatusInProgress, StatusNurturing, StatusLost, StatusConverted,
	}
	for i, status := range ordered {
		if got := StatusPriority(status); got != i+1 {
			t.Errorf("StatusPriority(%s) = %d, want %d", status, got, i+1)
		}
	}
	if got := StatusPriority(FollowUpStatus("bogus")); got <= StatusPriority(StatusConverted) {
		t.Errorf("unknown status priority %d should sort after all known statuses", got)
	}
}

func TestNeedsFollowUp(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	createdAt := now.Add(-30 * 24 * time.Hour)
	recent := now.Add(-time.Hour)
	stale := now.Add(-8 * 24 * time.Hour)
	exactly := now.Add(-DefaultFollowUpThreshold)

	cases := []struct {
		name      string
		state     LifecycleState
		threshold time.Duration
		want      bool
	}{
		{"new always needs follow-up", LifecycleState{FollowUpStatus: StatusNew}, DefaultFollowUpThreshold, true},
		{"converted never does", LifecycleState{FollowUpStatus: StatusConverted, LastContactedAt: &stale}, DefaultFollowUpThreshold, false},
		{"lost never does", LifecycleState{FollowUpStatus: StatusLost, LastContactedAt: &stale}, DefaultFollowUpThreshold, false},
		{"recently contacted", LifecycleState{FollowUpStatus: StatusContacted, LastContactedAt: &recent}, DefaultFollowUpThreshold, false},
		{"stale contact", LifecycleState{FollowUpStatus: StatusContacted, LastContactedAt: &stale}, DefaultFollowUpThreshold, true},
		{"exactly at threshold", LifecycleState{FollowUpStatus: StatusContacted, LastContactedAt: &exactly}, DefaultFollowUpThreshold, true},
		{"never contacted falls back to capture time", LifecycleState{FollowUpStatus: StatusInProgress}, DefaultFollowUpThreshold, true},
		{"custom short threshold", LifecycleState{FollowUpStatus: StatusNurturing, LastContactedAt: &recent}, 30 * time.Minute, true},
		{"zero threshold uses default", LifecycleState{FollowUpStatus: StatusContacted, LastContactedAt: &recent}, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsFollowUp(tc.state, createdAt, now, tc.threshold); got != tc.want {
				t.Errorf("NeedsFollowUp = %v, want %v", got, tc.want)
			}
		})
	}
}
