package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskQuotationRequestFollowUp = "quote_requests.follow_up"

// FollowUpPayload identifies the request to re-send and the user that owns it.
type FollowUpPayload struct {
	RequestID string  `json:"requestId"`
	UserID    string  `json:"userId"`
	CompanyID *string `json:"companyId,omitempty"`
}

func NewFollowUpTask(payload FollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationRequestFollowUp, data), nil
}

func ParseFollowUpPayload(task *asynq.Task) (FollowUpPayload, error) {
	var payload FollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpPayload{}, err
	}
	return payload, nil
}

// followUpTaskID makes at most one pending reminder per request.
func followUpTaskID(requestID string) string {
	return "follow-up:" + requestID
}
