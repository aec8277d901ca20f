package transport

import (
	"time"

	"github.com/google/uuid"
)

// Enum values
type EngagementLevel string

const (
	EngagementLevelLow    EngagementLevel = "low"
	EngagementLevelMedium EngagementLevel = "medium"
	EngagementLevelHigh   EngagementLevel = "high"
)

type FollowUpStatus string

const (
	FollowUpStatusNew        FollowUpStatus = "new"
	FollowUpStatusContacted  FollowUpStatus = "contacted"
	FollowUpStatusInProgress FollowUpStatus = "in_progress"
	FollowUpStatusConverted  FollowUpStatus = "converted"
	FollowUpStatusLost       FollowUpStatus = "lost"
	FollowUpStatusNurturing  FollowUpStatus = "nurturing"
)

type QualificationTier string

const (
	TierNotQualified    QualificationTier = "not_qualified"
	TierQualified       QualificationTier = "qualified"
	TierHighlyQualified QualificationTier = "highly_qualified"
	TierDisqualified    QualificationTier = "disqualified"
)

// QualificationFacts carries the full set of facts extracted from a chatbot
// conversation.
type QualificationFacts struct {
	AnsweredQuestions      int     `json:"answeredQuestions" validate:"min=0"`
	TotalQuestions         int     `json:"totalQuestions" validate:"min=0"`
	EngagementScore        float64 `json:"engagementScore" validate:"min=0,max=100"`
	ConversationLength     int     `json:"conversationLength" validate:"min=0"`
	SessionDurationSeconds int     `json:"sessionDurationSeconds" validate:"min=0"`

	HasContactInfo     bool `json:"hasContactInfo"`
	HasBudgetInfo      bool `json:"hasBudgetInfo"`
	HasTimelineInfo    bool `json:"hasTimelineInfo"`
	HasIndustryInfo    bool `json:"hasIndustryInfo"`
	HasCompanySizeInfo bool `json:"hasCompanySizeInfo"`

	EngagementLevel EngagementLevel `json:"engagementLevel" validate:"required,oneof=low medium high"`
	IsDecisionMaker bool            `json:"isDecisionMaker"`

	DisqualifyingFactors []string `json:"disqualifyingFactors,omitempty" validate:"dive,oneof=no_budget no_timeline wrong_industry competitor spam"`
}

// Request DTOs
type CaptureLeadRequest struct {
	SessionID       string             `json:"sessionId" validate:"required,min=1,max=200"`
	OrganizationID  uuid.UUID          `json:"organizationId" validate:"required"`
	ChatbotConfigID string             `json:"chatbotConfigId" validate:"required,min=1,max=200"`
	Qualification   QualificationFacts `json:"qualification" validate:"required"`

	ContactName  string `json:"contactName,omitempty" validate:"max=200"`
	ContactEmail string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone,omitempty" validate:"max=30"`
	Company      string `json:"company,omitempty" validate:"max=200"`

	Tags                []string `json:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	Notes               string   `json:"notes,omitempty" validate:"max=5000"`
	ConversationSummary string   `json:"conversationSummary,omitempty" validate:"max=10000"`
}

// UpdateQualificationRequest carries a partial update of qualification
// facts: nil fields keep the currently stored value.
type UpdateQualificationRequest struct {
	AnsweredQuestions      *int     `json:"answeredQuestions,omitempty" validate:"omitempty,min=0"`
	TotalQuestions         *int     `json:"totalQuestions,omitempty" validate:"omitempty,min=0"`
	EngagementScore        *float64 `json:"engagementScore,omitempty" validate:"omitempty,min=0,max=100"`
	ConversationLength     *int     `json:"conversationLength,omitempty" validate:"omitempty,min=0"`
	SessionDurationSeconds *int     `json:"sessionDurationSeconds,omitempty" validate:"omitempty,min=0"`

	HasContactInfo     *bool `json:"hasContactInfo,omitempty"`
	HasBudgetInfo      *bool `json:"hasBudgetInfo,omitempty"`
	HasTimelineInfo    *bool `json:"hasTimelineInfo,omitempty"`
	HasIndustryInfo    *bool `json:"hasIndustryInfo,omitempty"`
	HasCompanySizeInfo *bool `json:"hasCompanySizeInfo,omitempty"`

	EngagementLevel *EngagementLevel `json:"engagementLevel,omitempty" validate:"omitempty,oneof=low medium high"`
	IsDecisionMaker *bool            `json:"isDecisionMaker,omitempty"`

	DisqualifyingFactors *[]string `json:"disqualifyingFactors,omitempty" validate:"omitempty,dive,oneof=no_budget no_timeline wrong_industry competitor spam"`
}

type UpdateStatusRequest struct {
	Status FollowUpStatus `json:"status" validate:"required,oneof=new contacted in_progress converted lost nurturing"`
}

type AssignLeadRequest struct {
	AssigneeID OptionalUUID `json:"assigneeId" validate:"-"`
}

type UpdateMetadataRequest struct {
	ContactName         *string   `json:"contactName,omitempty" validate:"omitempty,max=200"`
	ContactEmail        *string   `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone        *string   `json:"contactPhone,omitempty" validate:"omitempty,max=30"`
	Company             *string   `json:"company,omitempty" validate:"omitempty,max=200"`
	Tags                *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Notes               *string   `json:"notes,omitempty" validate:"omitempty,max=5000"`
	ConversationSummary *string   `json:"conversationSummary,omitempty" validate:"omitempty,max=10000"`
}

type ListLeadsRequest struct {
	Status     *FollowUpStatus    `form:"status" validate:"omitempty,oneof=new contacted in_progress converted lost nurturing"`
	Tier       *QualificationTier `form:"tier" validate:"omitempty,oneof=not_qualified qualified highly_qualified disqualified"`
	AssignedTo *uuid.UUID         `form:"assignedTo" validate:"-"`
	MinScore   *int               `form:"minScore" validate:"omitempty,min=0,max=100"`
	Search     string             `form:"search" validate:"max=100"`
	Page       int                `form:"page" validate:"min=0"`
	PageSize   int                `form:"pageSize" validate:"min=0,max=100"`
	SortBy     string             `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt score status"`
	SortOrder  string             `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// Response DTOs
type ScoreBreakdownResponse struct {
	BaseScore          float64 `json:"baseScore"`
	EngagementBonus    float64 `json:"engagementBonus"`
	BudgetBonus        float64 `json:"budgetBonus"`
	TimelineBonus      float64 `json:"timelineBonus"`
	DecisionMakerBonus float64 `json:"decisionMakerBonus"`
	TotalBonuses       float64 `json:"totalBonuses"`
	FinalScore         int     `json:"finalScore"`
}

type ScoreResponse struct {
	Score     int                    `json:"score"`
	Tier      QualificationTier      `json:"tier"`
	Grade     string                 `json:"grade"`
	Breakdown ScoreBreakdownResponse `json:"breakdown"`
	Version   string                 `json:"version,omitempty"`
}

type LifecycleResponse struct {
	FollowUpStatus  FollowUpStatus `json:"followUpStatus"`
	AssignedTo      *uuid.UUID     `json:"assignedTo,omitempty"`
	LastContactedAt *time.Time     `json:"lastContactedAt,omitempty"`
	NeedsFollowUp   bool           `json:"needsFollowUp"`
	NextStatuses    []FollowUpStatus `json:"nextStatuses"`
}

type ContactResponse struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
}

type LeadResponse struct {
	ID              uuid.UUID          `json:"id"`
	SessionID       string             `json:"sessionId"`
	OrganizationID  uuid.UUID          `json:"organizationId"`
	ChatbotConfigID string             `json:"chatbotConfigId"`
	Contact         ContactResponse    `json:"contact"`
	Qualification   QualificationFacts `json:"qualification"`
	Score           ScoreResponse      `json:"score"`
	Lifecycle       LifecycleResponse  `json:"lifecycle"`
	Tags            []string           `json:"tags"`
	Notes           string             `json:"notes,omitempty"`
	ConversationSummary string         `json:"conversationSummary,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type ListLeadsResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

type RecommendationsResponse struct {
	LeadID          uuid.UUID `json:"leadId"`
	Score           int       `json:"score"`
	Tier            QualificationTier `json:"tier"`
	Recommendations []string  `json:"recommendations"`
}

type RescoreResponse struct {
	LeadID        uuid.UUID         `json:"leadId"`
	Score         int               `json:"score"`
	PreviousScore int               `json:"previousScore"`
	Tier          QualificationTier `json:"tier"`
	Version       string            `json:"version"`
}

type MetricsResponse struct {
	TotalLeads           int     `json:"totalLeads"`
	QualifiedLeads       int     `json:"qualifiedLeads"`
	HighlyQualifiedLeads int     `json:"highlyQualifiedLeads"`
	DisqualifiedLeads    int     `json:"disqualifiedLeads"`
	ConvertedLeads       int     `json:"convertedLeads"`
	AverageScore         float64 `json:"averageScore"`
}
