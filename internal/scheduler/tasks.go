package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowUpReminder = "leads.follow_up.reminder"

const TaskLeadRescore = "leads.rescore"

type FollowUpReminderPayload struct {
	LeadID         string `json:"leadId"`
	OrganizationID string `json:"organizationId"`
}

type LeadRescorePayload struct {
	LeadID         string `json:"leadId"`
	OrganizationID string `json:"organizationId"`
}

func NewFollowUpReminderTask(payload FollowUpReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpReminder, data), nil
}

func ParseFollowUpReminderPayload(task *asynq.Task) (FollowUpReminderPayload, error) {
	var payload FollowUpReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpReminderPayload{}, err
	}
	return payload, nil
}

func NewLeadRescoreTask(payload LeadRescorePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadRescore, data), nil
}

func ParseLeadRescorePayload(task *asynq.Task) (LeadRescorePayload, error) {
	var payload LeadRescorePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadRescorePayload{}, err
	}
	return payload, nil
}
