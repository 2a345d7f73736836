package requests

import (
	"github.com/google/uuid"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
)

// Decision is the admin verdict on a pending purchase request.
type Decision string

const (
	DecisionComplete Decision = "complete"
	DecisionReject   Decision = "reject"
)

// Status returns the terminal status the decision moves the request into.
func (d Decision) Status() (models.RequestStatus, bool) {
	switch d {
	case DecisionComplete:
		return models.RequestStatusCompleted, true
	case DecisionReject:
		return models.RequestStatusRejected, true
	default:
		return "", false
	}
}

// TransitionResult reports what a decision did: the new status, the user's
// standing under the strike policy and the delivery outcome for approvals.
type TransitionResult struct {
	RequestID    uuid.UUID            `json:"request_id"`
	UserID       int64                `json:"user_id"`
	Status       models.RequestStatus `json:"status"`
	FailureCount int                  `json:"failure_count"`
	Banned       bool                 `json:"banned"`
	UserMessage  string               `json:"user_message"`
	ImagePath    string               `json:"image_path,omitempty"`
}
