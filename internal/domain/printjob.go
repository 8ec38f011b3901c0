package domain

import "time"

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobPrinting  JobStatus = "printing"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// PrintJob is one receipt waiting to be rendered on physical hardware.
// Lines hold the fully rendered receipt; they are immutable once queued.
type PrintJob struct {
	ID             string
	OrderKey       string
	Lines          []string
	Status         JobStatus
	Attempts       int
	QueuedAt       time.Time
	PrintStartedAt *time.Time
	CompletedAt    *time.Time
	Error          string
}
