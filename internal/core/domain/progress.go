package domain

import "time"

const (
	EventProgressLog  = "PROGRESS_LOG"
	EventStatusUpdate = "STATUS_UPDATE"
)

// Pipeline step tags used in progress log events.
const (
	StepInit       = "INIT"
	StepClone      = "CLONE"
	StepScan       = "SCAN"
	StepArchitect  = "ARCHITECT"
	StepCache      = "CACHE"
	StepAIGenerate = "AI_GENERATE"
	StepSave       = "SAVE"
	StepComplete   = "COMPLETE"
	StepError      = "ERROR"
)

// ProgressEvent is an ephemeral event published to live subscribers of one
// repository's progress topic. It is never persisted. RepositoryID routes the
// event to its per-repository subject and is not part of the payload.
type ProgressEvent struct {
	RepositoryID string `json:"-"`

	Type      string           `json:"type"`
	Step      string           `json:"step,omitempty"`
	Message   string           `json:"message,omitempty"`
	Status    RepositoryStatus `json:"status,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewLogEvent(repositoryID, step, message string) ProgressEvent {
	return ProgressEvent{
		RepositoryID: repositoryID,
		Type:         EventProgressLog,
		Step:         step,
		Message:      message,
		Timestamp:    time.Now().UTC(),
	}
}

func NewStatusEvent(repositoryID string, status RepositoryStatus) ProgressEvent {
	return ProgressEvent{
		RepositoryID: repositoryID,
		Type:         EventStatusUpdate,
		Status:       status,
		Timestamp:    time.Now().UTC(),
	}
}
