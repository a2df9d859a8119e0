package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadRescore = "leads.score.rescore"

const TaskScoreDecayRefresh = "leads.score.decay_refresh"

type LeadRescorePayload struct {
	LeadID         string `json:"leadId"`
	OrganizationID string `json:"organizationId"`
	Reason         string `json:"reason,omitempty"`
}

type ScoreDecayRefreshPayload struct {
	BatchSize int `json:"batchSize,omitempty"`
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

func NewScoreDecayRefreshTask(payload ScoreDecayRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoreDecayRefresh, data), nil
}

func ParseScoreDecayRefreshPayload(task *asynq.Task) (ScoreDecayRefreshPayload, error) {
	var payload ScoreDecayRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoreDecayRefreshPayload{}, err
	}
	return payload, nil
}
