package service

import (
	"time"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/transport"
)

func toSnapshot(facts transport.QualificationFacts) domain.QualificationSnapshot {
	factors := make([]domain.DisqualifyingFactor, 0, len(facts.DisqualifyingFactors))
	for _, f := range facts.DisqualifyingFactors {
		factors = append(factors, domain.DisqualifyingFactor(f))
	}
	return domain.QualificationSnapshot{
		AnsweredQuestions:      facts.AnsweredQuestions,
		TotalQuestions:         facts.TotalQuestions,
		EngagementScore:        facts.EngagementScore,
		ConversationLength:     facts.ConversationLength,
		SessionDurationSeconds: facts.SessionDurationSeconds,
		HasContactInfo:         facts.HasContactInfo,
		HasBudgetInfo:          facts.HasBudgetInfo,
		HasTimelineInfo:        facts.HasTimelineInfo,
		HasIndustryInfo:        facts.HasIndustryInfo,
		HasCompanySizeInfo:     facts.HasCompanySizeInfo,
		EngagementLevel:        domain.EngagementLevel(facts.EngagementLevel),
		IsDecisionMaker:        facts.IsDecisionMaker,
		DisqualifyingFactors:   factors,
	}
}

func toFacts(snapshot domain.QualificationSnapshot) transport.QualificationFacts {
	factors := make([]string, 0, len(snapshot.DisqualifyingFactors))
	for _, f := range snapshot.DisqualifyingFactors {
		factors = append(factors, string(f))
	}
	return transport.QualificationFacts{
		AnsweredQuestions:      snapshot.AnsweredQuestions,
		TotalQuestions:         snapshot.TotalQuestions,
		EngagementScore:        snapshot.EngagementScore,
		ConversationLength:     snapshot.ConversationLength,
		SessionDurationSeconds: snapshot.SessionDurationSeconds,
		HasContactInfo:         snapshot.HasContactInfo,
		HasBudgetInfo:          snapshot.HasBudgetInfo,
		HasTimelineInfo:        snapshot.HasTimelineInfo,
		HasIndustryInfo:        snapshot.HasIndustryInfo,
		HasCompanySizeInfo:     snapshot.HasCompanySizeInfo,
		EngagementLevel:        transport.EngagementLevel(snapshot.EngagementLevel),
		IsDecisionMaker:        snapshot.IsDecisionMaker,
		DisqualifyingFactors:   factors,
	}
}

// mergeFacts overlays the partial update onto the stored snapshot. Set
// fields win, unset fields keep the stored value.
func mergeFacts(current domain.QualificationSnapshot, req transport.UpdateQualificationRequest) domain.QualificationSnapshot {
	merged := current

	if req.AnsweredQuestions != nil {
		merged.AnsweredQuestions = *req.AnsweredQuestions
	}
	if req.TotalQuestions != nil {
		merged.TotalQuestions = *req.TotalQuestions
	}
	if req.EngagementScore != nil {
		merged.EngagementScore = *req.EngagementScore
	}
	if req.ConversationLength != nil {
		merged.ConversationLength = *req.ConversationLength
	}
	if req.SessionDurationSeconds != nil {
		merged.SessionDurationSeconds = *req.SessionDurationSeconds
	}
	if req.HasContactInfo != nil {
		merged.HasContactInfo = *req.HasContactInfo
	}
	if req.HasBudgetInfo != nil {
		merged.HasBudgetInfo = *req.HasBudgetInfo
	}
	if req.HasTimelineInfo != nil {
		merged.HasTimelineInfo = *req.HasTimelineInfo
	}
	if req.HasIndustryInfo != nil {
		merged.HasIndustryInfo = *req.HasIndustryInfo
	}
	if req.HasCompanySizeInfo != nil {
		merged.HasCompanySizeInfo = *req.HasCompanySizeInfo
	}
	if req.EngagementLevel != nil {
		merged.EngagementLevel = domain.EngagementLevel(*req.EngagementLevel)
	}
	if req.IsDecisionMaker != nil {
		merged.IsDecisionMaker = *req.IsDecisionMaker
	}
	if req.DisqualifyingFactors != nil {
		factors := make([]domain.DisqualifyingFactor, 0, len(*req.DisqualifyingFactors))
		for _, f := range *req.DisqualifyingFactors {
			factors = append(factors, domain.DisqualifyingFactor(f))
		}
		merged.DisqualifyingFactors = factors
	}

	return merged
}

// toAggregate reconstructs the domain aggregate from a persisted row.
func toAggregate(row repository.Lead) domain.LeadAggregate {
	return domain.LeadAggregate{
		ID:              row.ID,
		SessionID:       row.SessionID,
		OrganizationID:  row.OrganizationID,
		ChatbotConfigID: row.ChatbotConfigID,
		Snapshot:        row.Snapshot(),
		Score:           row.ScoreResult(),
		Lifecycle:       row.Lifecycle(),
		Tags:            row.Tags,
		Notes:           derefOrEmpty(row.Notes),
		ConversationSummary: derefOrEmpty(row.ConversationSummary),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func (s *Service) toResponse(row repository.Lead) transport.LeadResponse {
	result := row.ScoreResult()
	now := time.Now().UTC()

	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}

	return transport.LeadResponse{
		ID:              row.ID,
		SessionID:       row.SessionID,
		OrganizationID:  row.OrganizationID,
		ChatbotConfigID: row.ChatbotConfigID,
		Contact: transport.ContactResponse{
			Name:    row.ContactName,
			Email:   row.ContactEmail,
			Phone:   row.ContactPhone,
			Company: row.Company,
		},
		Qualification: toFacts(row.Snapshot()),
		Score: transport.ScoreResponse{
			Score:     result.Score,
			Tier:      transport.QualificationTier(result.Tier),
			Grade:     domain.Grade(result.Score),
			Breakdown: toBreakdown(result.Breakdown),
			Version:   row.ScoreVersion,
		},
		Lifecycle: transport.LifecycleResponse{
			FollowUpStatus:  transport.FollowUpStatus(row.FollowUpStatus),
			AssignedTo:      row.AssignedTo,
			LastContactedAt: row.LastContactedAt,
			NeedsFollowUp:   domain.NeedsFollowUp(row.Lifecycle(), row.CreatedAt, now, s.followUpThreshold),
			NextStatuses:    toStatuses(domain.NextValidStatuses(domain.FollowUpStatus(row.FollowUpStatus))),
		},
		Tags:                tags,
		Notes:               derefOrEmpty(row.Notes),
		ConversationSummary: derefOrEmpty(row.ConversationSummary),
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func toBreakdown(b domain.ScoreBreakdown) transport.ScoreBreakdownResponse {
	return transport.ScoreBreakdownResponse{
		BaseScore:          b.BaseScore,
		EngagementBonus:    b.EngagementBonus,
		BudgetBonus:        b.BudgetBonus,
		TimelineBonus:      b.TimelineBonus,
		DecisionMakerBonus: b.DecisionMakerBonus,
		TotalBonuses:       b.TotalBonuses,
		FinalScore:         b.FinalScore,
	}
}

func toStatuses(statuses []domain.FollowUpStatus) []transport.FollowUpStatus {
	out := make([]transport.FollowUpStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, transport.FollowUpStatus(status))
	}
	return out
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
