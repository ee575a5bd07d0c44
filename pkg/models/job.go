package models

import "time"

// Job statuses for queued order submissions
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusRetrying   = "retrying"
	JobStatusFailed     = "failed"
)

// Job priorities
const (
	JobPriorityNormal = "normal"
	JobPriorityHigh   = "high"
)

// OrderJob is one queued sales-order submission
type OrderJob struct {
	JobID       string              `json:"job_id"`
	Status      string              `json:"status"`
	Priority    string              `json:"priority"`
	Attempts    int                 `json:"attempts"`
	MaxAttempts int                 `json:"max_attempts"`
	CreatedAt   time.Time           `json:"created_at"`
	ProcessedAt *time.Time          `json:"processed_at,omitempty"`
	NextRetryAt *time.Time          `json:"next_retry_at,omitempty"`
	Request     SalesOrderRequest   `json:"request"`
	Result      *SalesOrderResponse `json:"result,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Terminal reports whether the job will not be processed again
func (j *OrderJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
