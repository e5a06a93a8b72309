package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// rank orders statuses so transitions can be checked for monotonicity.
// completed and failed share a rank: both are terminal.
func (s JobStatus) rank() int {
	switch s {
	case JobStatusPending:
		return 0
	case JobStatusProcessing:
		return 1
	case JobStatusCompleted, JobStatusFailed:
		return 2
	}
	return -1
}

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition allows only forward moves through the lifecycle, with one
// exception: a processing job may be requeued to pending by the staleness
// sweep, which counts as a retry rather than a regression.
func (s JobStatus) CanTransition(to JobStatus) bool {
	if s.Terminal() {
		return false
	}
	if s == JobStatusProcessing && to == JobStatusPending {
		return true // staleness requeue
	}
	return to.rank() > s.rank()
}

// Turn is one prior message of the conversation carried with the job.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Job is one asynchronous chat turn tracked through durable storage.
type Job struct {
	ID       string
	UserID   string
	Message  string
	Mode     string
	History  []Turn
	Persona  string
	Status   JobStatus
	Response string

	Retries   int
	LastError string

	CreatedAt           time.Time
	ProcessingStartedAt time.Time
	CompletedAt         time.Time
	ProcessingTimeMs    int64

	// UpdateTime is the store's revision stamp of the document this Job was
	// read from. Conditional writes use it to detect concurrent claims.
	UpdateTime string
}
