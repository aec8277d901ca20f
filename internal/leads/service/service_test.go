package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/transport"
	"chatlead_backend/platform/apperr"
	"chatlead_backend/platform/logger"

	"github.com/google/uuid"
)

// stubRepository backs the service with an in-memory map keyed by lead ID.
type stubRepository struct {
	mu    sync.Mutex
	leads map[uuid.UUID]repository.Lead
}

func newStubRepository() *stubRepository {
	return &stubRepository{leads: make(map[uuid.UUID]repository.Lead)}
}

func (s *stubRepository) put(lead repository.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead
}

func (s *stubRepository) GetByID(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok || lead.OrganizationID != organizationID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (s *stubRepository) GetBySessionID(_ context.Context, sessionID string, organizationID uuid.UUID) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lead := range s.leads {
		if lead.SessionID == sessionID && lead.OrganizationID == organizationID {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (s *stubRepository) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if lead.OrganizationID == params.OrganizationID {
			out = append(out, lead)
		}
	}
	return out, len(out), nil
}

func (s *stubRepository) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	breakdownJSON, _ := json.Marshal(params.Score.Breakdown)
	factors := make([]string, 0, len(params.Snapshot.DisqualifyingFactors))
	for _, f := range params.Snapshot.DisqualifyingFactors {
		factors = append(factors, string(f))
	}

	now := time.Now().UTC()
	lead := repository.Lead{
		ID:              params.ID,
		SessionID:       params.SessionID,
		OrganizationID:  params.OrganizationID,
		ChatbotConfigID: params.ChatbotConfigID,

		ContactName:  params.ContactName,
		ContactEmail: params.ContactEmail,
		ContactPhone: params.ContactPhone,
		Company:      params.Company,

		AnsweredQuestions:      params.Snapshot.AnsweredQuestions,
		TotalQuestions:         params.Snapshot.TotalQuestions,
		EngagementScore:        params.Snapshot.EngagementScore,
		ConversationLength:     params.Snapshot.ConversationLength,
		SessionDurationSeconds: params.Snapshot.SessionDurationSeconds,

		HasContactInfo:     params.Snapshot.HasContactInfo,
		HasBudgetInfo:      params.Snapshot.HasBudgetInfo,
		HasTimelineInfo:    params.Snapshot.HasTimelineInfo,
		HasIndustryInfo:    params.Snapshot.HasIndustryInfo,
		HasCompanySizeInfo: params.Snapshot.HasCompanySizeInfo,

		EngagementLevel:      string(params.Snapshot.EngagementLevel),
		IsDecisionMaker:      params.Snapshot.IsDecisionMaker,
		DisqualifyingFactors: factors,

		Score:         params.Score.Score,
		Tier:          string(params.Score.Tier),
		BreakdownJSON: breakdownJSON,
		ScoreVersion:  params.Version,

		FollowUpStatus: params.FollowUpStatus,

		Tags:                params.Tags,
		Notes:               params.Notes,
		ConversationSummary: params.ConversationSummary,

		CreatedAt: now,
		UpdatedAt: now,
	}
	s.put(lead)
	return lead, nil
}

func (s *stubRepository) UpdateQualification(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params repository.UpdateQualificationParams) (repository.Lead, error) {
	lead, err := s.GetByID(ctx, id, organizationID)
	if err != nil {
		return repository.Lead{}, err
	}

	breakdownJSON, _ := json.Marshal(params.Score.Breakdown)
	factors := make([]string, 0, len(params.Snapshot.DisqualifyingFactors))
	for _, f := range params.Snapshot.DisqualifyingFactors {
		factors = append(factors, string(f))
	}

	lead.AnsweredQuestions = params.Snapshot.AnsweredQuestions
	lead.TotalQuestions = params.Snapshot.TotalQuestions
	lead.EngagementScore = params.Snapshot.EngagementScore
	lead.ConversationLength = params.Snapshot.ConversationLength
	lead.SessionDurationSeconds = params.Snapshot.SessionDurationSeconds
	lead.HasContactInfo = params.Snapshot.HasContactInfo
	lead.HasBudgetInfo = params.Snapshot.HasBudgetInfo
	lead.HasTimelineInfo = params.Snapshot.HasTimelineInfo
	lead.HasIndustryInfo = params.Snapshot.HasIndustryInfo
	lead.HasCompanySizeInfo = params.Snapshot.HasCompanySizeInfo
	lead.EngagementLevel = string(params.Snapshot.EngagementLevel)
	lead.IsDecisionMaker = params.Snapshot.IsDecisionMaker
	lead.DisqualifyingFactors = factors
	lead.Score = params.Score.Score
	lead.Tier = string(params.Score.Tier)
	lead.BreakdownJSON = breakdownJSON
	lead.ScoreVersion = params.Version
	lead.UpdatedAt = time.Now().UTC()

	s.put(lead)
	return lead, nil
}

func (s *stubRepository) UpdateLifecycle(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, state domain.LifecycleState) (repository.Lead, error) {
	lead, err := s.GetByID(ctx, id, organizationID)
	if err != nil {
		return repository.Lead{}, err
	}
	lead.FollowUpStatus = string(state.FollowUpStatus)
	lead.AssignedTo = state.AssignedTo
	lead.LastContactedAt = state.LastContactedAt
	lead.UpdatedAt = time.Now().UTC()
	s.put(lead)
	return lead, nil
}

func (s *stubRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params repository.UpdateMetadataParams) (repository.Lead, error) {
	lead, err := s.GetByID(ctx, id, organizationID)
	if err != nil {
		return repository.Lead{}, err
	}
	if params.ContactName != nil {
		lead.ContactName = params.ContactName
	}
	if params.ContactEmail != nil {
		lead.ContactEmail = params.ContactEmail
	}
	if params.ContactPhone != nil {
		lead.ContactPhone = params.ContactPhone
	}
	if params.Company != nil {
		lead.Company = params.Company
	}
	if params.Tags != nil {
		lead.Tags = params.Tags
	}
	if params.Notes != nil {
		lead.Notes = params.Notes
	}
	if params.ConversationSummary != nil {
		lead.ConversationSummary = params.ConversationSummary
	}
	lead.UpdatedAt = time.Now().UTC()
	s.put(lead)
	return lead, nil
}

func (s *stubRepository) Delete(_ context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok || lead.OrganizationID != organizationID {
		return repository.ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *stubRepository) UpdateScore(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, score domain.ScoreResult, version string) (repository.Lead, error) {
	lead, err := s.GetByID(ctx, id, organizationID)
	if err != nil {
		return repository.Lead{}, err
	}
	breakdownJSON, _ := json.Marshal(score.Breakdown)
	lead.Score = score.Score
	lead.Tier = string(score.Tier)
	lead.BreakdownJSON = breakdownJSON
	lead.ScoreVersion = version
	s.put(lead)
	return lead, nil
}

func (s *stubRepository) ListAllIDs(_ context.Context) ([]repository.LeadRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]repository.LeadRef, 0, len(s.leads))
	for _, lead := range s.leads {
		refs = append(refs, repository.LeadRef{ID: lead.ID, OrganizationID: lead.OrganizationID})
	}
	return refs, nil
}

func (s *stubRepository) ListFollowUpCandidates(_ context.Context, _ time.Time, _ int) ([]repository.Lead, error) {
	return nil, nil
}

func (s *stubRepository) GetMetrics(_ context.Context, _ uuid.UUID) (repository.LeadMetrics, error) {
	return repository.LeadMetrics{}, nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *recordingBus) lastEvent(t *testing.T) events.Event {
	t.Helper()
	published := b.published()
	if len(published) == 0 {
		t.Fatal("no events published")
	}
	return published[len(published)-1]
}

func newTestService(t *testing.T) (*Service, *stubRepository, *recordingBus) {
	t.Helper()
	repo := newStubRepository()
	bus := &recordingBus{}
	svc := New(repo, bus, logger.New("development"), Config{
		Weights:      domain.DefaultWeights(),
		ScoreVersion: "test-v1",
	})
	return svc, repo, bus
}

func captureRequest() transport.CaptureLeadRequest {
	return transport.CaptureLeadRequest{
		SessionID:       "session-abc",
		OrganizationID:  uuid.New(),
		ChatbotConfigID: "support-bot",
		Qualification: transport.QualificationFacts{
			AnsweredQuestions:      8,
			TotalQuestions:         10,
			EngagementScore:        70,
			ConversationLength:     24,
			SessionDurationSeconds: 600,
			HasContactInfo:         true,
			HasBudgetInfo:          true,
			HasTimelineInfo:        true,
			HasIndustryInfo:        true,
			HasCompanySizeInfo:     true,
			EngagementLevel:        transport.EngagementLevelHigh,
			IsDecisionMaker:        true,
		},
		ContactName:  "Dana Fields",
		ContactEmail: "dana@example.com",
		Company:      "Acme",
	}
}

func TestCapture(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Capture(ctx, captureRequest())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if resp.Score.Score != 100 {
		t.Errorf("score = %d, want 100", resp.Score.Score)
	}
	if resp.Score.Tier != transport.TierHighlyQualified {
		t.Errorf("tier = %s, want %s", resp.Score.Tier, transport.TierHighlyQualified)
	}
	if resp.Score.Grade != "A" {
		t.Errorf("grade = %s, want A", resp.Score.Grade)
	}
	if resp.Lifecycle.FollowUpStatus != transport.FollowUpStatusNew {
		t.Errorf("status = %s, want new", resp.Lifecycle.FollowUpStatus)
	}
	if !resp.Lifecycle.NeedsFollowUp {
		t.Error("freshly captured lead should need follow-up")
	}

	captured, ok := bus.lastEvent(t).(events.LeadCaptured)
	if !ok {
		t.Fatalf("event type = %T, want LeadCaptured", bus.lastEvent(t))
	}
	if captured.LeadID != resp.ID || captured.Score != 100 {
		t.Errorf("event = %+v does not match response", captured)
	}
}

func TestCaptureSanitizesFreeText(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	req := captureRequest()
	req.Notes = `<script>alert(1)</script>pricing call booked`
	req.ContactName = "<b>Dana</b> Fields"

	resp, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	row, err := repo.GetByID(ctx, resp.ID, req.OrganizationID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if row.Notes == nil || *row.Notes != "alert(1)pricing call booked" {
		t.Errorf("notes = %v, want HTML stripped", row.Notes)
	}
	if row.ContactName == nil || *row.ContactName != "Dana Fields" {
		t.Errorf("contactName = %v, want HTML stripped", row.ContactName)
	}
}

func TestCaptureDuplicateSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	if _, err := svc.Capture(ctx, req); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}

	_, err := svc.Capture(ctx, req)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("second capture err = %v, want conflict", err)
	}
}

func TestCaptureSameSessionDifferentOrganization(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first := captureRequest()
	if _, err := svc.Capture(ctx, first); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}

	second := captureRequest()
	second.OrganizationID = uuid.New()
	if _, err := svc.Capture(ctx, second); err != nil {
		t.Fatalf("capture in a different organization failed: %v", err)
	}
}

func TestUpdateQualificationMergesPartialFacts(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	previousScore := created.Score.Score

	// Only the budget fact changes; every other fact keeps its stored value.
	noBudget := false
	lowScore := 10.0
	low := transport.EngagementLevelLow
	updated, err := svc.UpdateQualification(ctx, created.ID, req.OrganizationID, transport.UpdateQualificationRequest{
		HasBudgetInfo:   &noBudget,
		EngagementScore: &lowScore,
		EngagementLevel: &low,
	})
	if err != nil {
		t.Fatalf("UpdateQualification failed: %v", err)
	}

	if updated.Qualification.HasBudgetInfo {
		t.Error("budget fact not updated")
	}
	if !updated.Qualification.HasTimelineInfo || updated.Qualification.AnsweredQuestions != 8 {
		t.Error("unrelated facts did not keep their stored values")
	}
	if updated.Score.Score >= previousScore {
		t.Errorf("score = %d, want lower than %d after losing facts", updated.Score.Score, previousScore)
	}

	scored, ok := bus.lastEvent(t).(events.LeadScored)
	if !ok {
		t.Fatalf("event type = %T, want LeadScored", bus.lastEvent(t))
	}
	if scored.PreviousScore != previousScore || scored.Score != updated.Score.Score {
		t.Errorf("event = %+v, want previous %d and new %d", scored, previousScore, updated.Score.Score)
	}
}

func TestUpdateQualificationNoScoreChangeNoEvent(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	before := len(bus.published())

	// Conversation length is not a scored dimension, so the score holds.
	length := 30
	if _, err := svc.UpdateQualification(ctx, created.ID, req.OrganizationID, transport.UpdateQualificationRequest{
		ConversationLength: &length,
	}); err != nil {
		t.Fatalf("UpdateQualification failed: %v", err)
	}

	if got := len(bus.published()); got != before {
		t.Errorf("published %d events, want none for an unchanged score", got-before)
	}
}

func TestChangeStatus(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	updated, err := svc.ChangeStatus(ctx, created.ID, req.OrganizationID, transport.UpdateStatusRequest{
		Status: transport.FollowUpStatusContacted,
	})
	if err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}
	if updated.Lifecycle.FollowUpStatus != transport.FollowUpStatusContacted {
		t.Errorf("status = %s, want contacted", updated.Lifecycle.FollowUpStatus)
	}
	if updated.Lifecycle.LastContactedAt == nil {
		t.Error("lastContactedAt not stamped on transition to contacted")
	}

	changed, ok := bus.lastEvent(t).(events.LeadStatusChanged)
	if !ok {
		t.Fatalf("event type = %T, want LeadStatusChanged", bus.lastEvent(t))
	}
	if changed.FromStatus != string(transport.FollowUpStatusNew) || changed.ToStatus != string(transport.FollowUpStatusContacted) {
		t.Errorf("event from/to = %s/%s", changed.FromStatus, changed.ToStatus)
	}
}

func TestChangeStatusIllegalTransition(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	_, err = svc.ChangeStatus(ctx, created.ID, req.OrganizationID, transport.UpdateStatusRequest{
		Status: transport.FollowUpStatusConverted,
	})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict for new -> converted", err)
	}

	// The rejected transition must not be persisted.
	row, err := repo.GetByID(ctx, created.ID, req.OrganizationID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if row.FollowUpStatus != string(transport.FollowUpStatusNew) {
		t.Errorf("persisted status = %s, want new", row.FollowUpStatus)
	}
}

func TestAssignAndUnassignLead(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	owner := uuid.New()
	assigned, err := svc.Assign(ctx, created.ID, req.OrganizationID, &owner)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if assigned.Lifecycle.AssignedTo == nil || *assigned.Lifecycle.AssignedTo != owner {
		t.Fatal("assignee not set")
	}

	event, ok := bus.lastEvent(t).(events.LeadAssigned)
	if !ok || event.AssignedTo == nil || *event.AssignedTo != owner {
		t.Errorf("LeadAssigned event = %+v", bus.lastEvent(t))
	}

	unassigned, err := svc.Assign(ctx, created.ID, req.OrganizationID, nil)
	if err != nil {
		t.Fatalf("Unassign failed: %v", err)
	}
	if unassigned.Lifecycle.AssignedTo != nil {
		t.Error("assignee not cleared")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("err = %v, want ErrLeadNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if err := svc.Delete(ctx, created.ID, req.OrganizationID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, created.ID, req.OrganizationID); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("second delete err = %v, want ErrLeadNotFound", err)
	}
}

func TestNextStatuses(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	req := captureRequest()

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	statuses, err := svc.NextStatuses(ctx, created.ID, req.OrganizationID)
	if err != nil {
		t.Fatalf("NextStatuses failed: %v", err)
	}
	want := map[transport.FollowUpStatus]bool{
		transport.FollowUpStatusContacted:  true,
		transport.FollowUpStatusInProgress: true,
		transport.FollowUpStatusLost:       true,
	}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want 3 entries", statuses)
	}
	for _, status := range statuses {
		if !want[status] {
			t.Errorf("unexpected next status %s", status)
		}
	}
}

func TestRecommendationsOperation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := captureRequest()
	req.Qualification.HasBudgetInfo = false
	req.Qualification.HasTimelineInfo = false

	created, err := svc.Capture(ctx, req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	resp, err := svc.Recommendations(ctx, created.ID, req.OrganizationID)
	if err != nil {
		t.Fatalf("Recommendations failed: %v", err)
	}
	if resp.LeadID != created.ID {
		t.Errorf("leadID = %s, want %s", resp.LeadID, created.ID)
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected recommendations for missing budget and timeline")
	}
}
