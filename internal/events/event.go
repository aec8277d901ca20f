// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"chatlead_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCaptured is published when a chatbot conversation produces a new lead.
type LeadCaptured struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	SessionID       string    `json:"sessionId"`
	OrganizationID  uuid.UUID `json:"organizationId"`
	ChatbotConfigID string    `json:"chatbotConfigId"`
	Score           int       `json:"score"`
	Tier            string    `json:"tier"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadScored is published whenever a lead's score is computed or recomputed.
type LeadScored struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Score          int       `json:"score"`
	PreviousScore  int       `json:"previousScore"`
	Tier           string    `json:"tier"`
}

func (e LeadScored) EventName() string { return "leads.lead.scored" }

// LeadStatusChanged is published on a successful follow-up status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	FromStatus     string    `json:"fromStatus"`
	ToStatus       string    `json:"toStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadAssigned is published when a lead is assigned to or unassigned from a user.
type LeadAssigned struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	AssignedTo     *uuid.UUID `json:"assignedTo,omitempty"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// FollowUpDue is published by the scheduler when a lead crosses its
// follow-up threshold without contact.
type FollowUpDue struct {
	BaseEvent
	LeadID           uuid.UUID `json:"leadId"`
	OrganizationID   uuid.UUID `json:"organizationId"`
	FollowUpStatus   string    `json:"followUpStatus"`
	DaysSinceContact int       `json:"daysSinceContact"`
}

func (e FollowUpDue) EventName() string { return "leads.lead.follow_up_due" }
