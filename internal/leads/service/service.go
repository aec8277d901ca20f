package service

import (
	"context"
	"errors"
	"time"

	"chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/transport"
	"chatlead_backend/platform/apperr"
	"chatlead_backend/platform/logger"
	"chatlead_backend/platform/phone"
	"chatlead_backend/platform/sanitize"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrDuplicateSession = errors.New("a lead for this session already exists")
)

// Service orchestrates lead capture and lifecycle operations. All domain
// decisions (scoring, transition legality) live in the domain package; this
// layer loads state, applies the decision, persists and publishes.
type Service struct {
	repo              repository.LeadsRepository
	bus               events.Bus
	log               *logger.Logger
	weights           domain.ScoringWeights
	scoreVersion      string
	followUpThreshold time.Duration
}

// Config carries service construction options.
type Config struct {
	Weights           domain.ScoringWeights
	ScoreVersion      string
	FollowUpThreshold time.Duration
}

func New(repo repository.LeadsRepository, bus events.Bus, log *logger.Logger, cfg Config) *Service {
	threshold := cfg.FollowUpThreshold
	if threshold <= 0 {
		threshold = domain.DefaultFollowUpThreshold
	}
	return &Service{
		repo:              repo,
		bus:               bus,
		log:               log,
		weights:           cfg.Weights,
		scoreVersion:      cfg.ScoreVersion,
		followUpThreshold: threshold,
	}
}

// Capture creates a lead from a finished chatbot conversation: facts are
// validated, scored, and persisted in one step. A session can only produce
// one lead.
func (s *Service) Capture(ctx context.Context, req transport.CaptureLeadRequest) (transport.LeadResponse, error) {
	if _, err := s.repo.GetBySessionID(ctx, req.SessionID, req.OrganizationID); err == nil {
		return transport.LeadResponse{}, apperr.New(apperr.KindConflict, ErrDuplicateSession.Error())
	} else if !errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, err
	}

	snapshot := toSnapshot(req.Qualification)
	now := time.Now().UTC()

	lead, err := domain.NewLead(uuid.New(), req.SessionID, req.OrganizationID, req.ChatbotConfigID, snapshot, s.weights, now)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	params := repository.CreateLeadParams{
		ID:              lead.ID,
		SessionID:       lead.SessionID,
		OrganizationID:  lead.OrganizationID,
		ChatbotConfigID: lead.ChatbotConfigID,
		Snapshot:        lead.Snapshot,
		Score:           lead.Score,
		Version:         s.scoreVersion,
		FollowUpStatus:  string(lead.Lifecycle.FollowUpStatus),
		Tags:            req.Tags,
	}

	if name := sanitize.Text(req.ContactName); name != "" {
		params.ContactName = &name
	}
	if req.ContactEmail != "" {
		params.ContactEmail = &req.ContactEmail
	}
	if req.ContactPhone != "" {
		normalized := phone.NormalizeE164(req.ContactPhone)
		params.ContactPhone = &normalized
	}
	if company := sanitize.Text(req.Company); company != "" {
		params.Company = &company
	}
	if notes := sanitize.Text(req.Notes); notes != "" {
		params.Notes = &notes
	}
	if summary := sanitize.Text(req.ConversationSummary); summary != "" {
		params.ConversationSummary = &summary
	}

	row, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.log.LeadScored(row.ID.String(), row.Score, row.Tier)
	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          row.ID,
		SessionID:       row.SessionID,
		OrganizationID:  row.OrganizationID,
		ChatbotConfigID: row.ChatbotConfigID,
		Score:           row.Score,
		Tier:            row.Tier,
	})

	return s.toResponse(row), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (transport.LeadResponse, error) {
	row, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}
	return s.toResponse(row), nil
}

func (s *Service) List(ctx context.Context, organizationID uuid.UUID, req transport.ListLeadsRequest) (transport.ListLeadsResponse, error) {
	params := repository.ListParams{
		OrganizationID: organizationID,
		AssignedTo:     req.AssignedTo,
		MinScore:       req.MinScore,
		Search:         req.Search,
		Page:           req.Page,
		PageSize:       req.PageSize,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}
	if req.Tier != nil {
		tier := string(*req.Tier)
		params.Tier = &tier
	}

	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ListLeadsResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toResponse(row))
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return transport.ListLeadsResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// UpdateQualification merges the partial facts into the stored snapshot,
// revalidates, rescores, and persists. Unset fields keep their stored value.
func (s *Service) UpdateQualification(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, req transport.UpdateQualificationRequest) (transport.LeadResponse, error) {
	row, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	lead := toAggregate(row)
	merged := mergeFacts(row.Snapshot(), req)
	now := time.Now().UTC()

	updated, err := lead.WithUpdatedQualification(merged, s.weights, now)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	saved, err := s.repo.UpdateQualification(ctx, id, organizationID, repository.UpdateQualificationParams{
		Snapshot: updated.Snapshot,
		Score:    updated.Score,
		Version:  s.scoreVersion,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if saved.Score != row.Score {
		s.log.LeadScored(id.String(), saved.Score, saved.Tier)
		s.bus.Publish(ctx, events.LeadScored{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         id,
			OrganizationID: organizationID,
			Score:          saved.Score,
			PreviousScore:  row.Score,
			Tier:           saved.Tier,
		})
	}

	return s.toResponse(saved), nil
}

// ChangeStatus applies a follow-up status transition. Illegal transitions
// surface as conflict errors from the domain and are never persisted.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, req transport.UpdateStatusRequest) (transport.LeadResponse, error) {
	row, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	lead := toAggregate(row)
	now := time.Now().UTC()

	updated, err := lead.WithFollowUpStatus(domain.FollowUpStatus(req.Status), now)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	saved, err := s.repo.UpdateLifecycle(ctx, id, organizationID, updated.Lifecycle)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.log.StatusTransition(id.String(), row.FollowUpStatus, saved.FollowUpStatus)
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         id,
		OrganizationID: organizationID,
		FromStatus:     row.FollowUpStatus,
		ToStatus:       saved.FollowUpStatus,
	})

	return s.toResponse(saved), nil
}

// Assign sets or clears the lead's owner. A nil assignee unassigns.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, assigneeID *uuid.UUID) (transport.LeadResponse, error) {
	row, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	lead := toAggregate(row)
	now := time.Now().UTC()

	var updated domain.LeadAggregate
	if assigneeID == nil {
		updated = lead.Unassign(now)
	} else {
		updated = lead.AssignTo(*assigneeID, now)
	}

	saved, err := s.repo.UpdateLifecycle(ctx, id, organizationID, updated.Lifecycle)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         id,
		OrganizationID: organizationID,
		AssignedTo:     assigneeID,
	})

	return s.toResponse(saved), nil
}

// UpdateMetadata updates contact details, tags, notes, and the
// conversation summary. Qualification facts and score are untouched.
func (s *Service) UpdateMetadata(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, req transport.UpdateMetadataRequest) (transport.LeadResponse, error) {
	params := repository.UpdateMetadataParams{
		ContactName:         sanitize.TextPtr(req.ContactName),
		ContactEmail:        req.ContactEmail,
		Company:             sanitize.TextPtr(req.Company),
		Notes:               sanitize.TextPtr(req.Notes),
		ConversationSummary: sanitize.TextPtr(req.ConversationSummary),
	}
	if req.ContactPhone != nil {
		normalized := phone.NormalizeE164(*req.ContactPhone)
		params.ContactPhone = &normalized
	}
	if req.Tags != nil {
		params.Tags = *req.Tags
	}

	saved, err := s.repo.UpdateMetadata(ctx, id, organizationID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	return s.toResponse(saved), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	err := s.repo.Delete(ctx, id, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrLeadNotFound
	}
	return err
}

// Recommendations returns actionable advice for raising the lead's score.
func (s *Service) Recommendations(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (transport.RecommendationsResponse, error) {
	row, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.RecommendationsResponse{}, ErrLeadNotFound
		}
		return transport.RecommendationsResponse{}, err
	}

	result := row.ScoreResult()
	return transport.RecommendationsResponse{
		LeadID:          row.ID,
		Score:           result.Score,
		Tier:            transport.QualificationTier(result.Tier),
		Recommendations: domain.Recommendations(row.Snapshot(), result),
	}, nil
}

// NextStatuses returns the legal follow-up transitions from the lead's
// current status.
func (s *Service) NextStatuses(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) ([]transport.FollowUpStatus, error) {
	row, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	return toStatuses(domain.NextValidStatuses(domain.FollowUpStatus(row.FollowUpStatus))), nil
}

// Metrics returns KPI aggregates for the organization.
func (s *Service) Metrics(ctx context.Context, organizationID uuid.UUID) (transport.MetricsResponse, error) {
	metrics, err := s.repo.GetMetrics(ctx, organizationID)
	if err != nil {
		return transport.MetricsResponse{}, err
	}
	return transport.MetricsResponse{
		TotalLeads:           metrics.TotalLeads,
		QualifiedLeads:       metrics.QualifiedLeads,
		HighlyQualifiedLeads: metrics.HighlyQualifiedLeads,
		DisqualifiedLeads:    metrics.DisqualifiedLeads,
		ConvertedLeads:       metrics.ConvertedLeads,
		AverageScore:         metrics.AverageScore,
	}, nil
}
