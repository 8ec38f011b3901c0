package printqueue

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/domain"
)

// Queue is a strict-FIFO hand-off of print work plus a registry for status
// reports. It is safe under multiple concurrent consumers even though one
// hardware bridge is the expected consumer: DequeueNext pops and marks
// Printing in a single critical section, so the same job can never be
// handed to two pollers.
//
// The queue itself has no timeout logic; stalled Printing jobs are handled
// by the sweeper through RequeueStalled.
type Queue struct {
	mu      sync.Mutex
	logger  *zap.Logger
	pending []string // job ids in enqueue order
	jobs    map[string]*domain.PrintJob
}

func New(logger *zap.Logger) *Queue {
	return &Queue{
		logger: logger,
		jobs:   make(map[string]*domain.PrintJob),
	}
}

// Enqueue registers a new Pending job and appends it to the FIFO. The
// rendered lines are the immutable payload. Returns the generated job id.
func (q *Queue) Enqueue(orderKey string, lines []string) string {
	job := &domain.PrintJob{
		ID:       uuid.NewString(),
		OrderKey: orderKey,
		Lines:    lines,
		Status:   domain.JobPending,
		QueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.pending = append(q.pending, job.ID)
	q.mu.Unlock()

	q.logger.Info("print job queued",
		zap.String("job_id", job.ID),
		zap.String("order_key", orderKey),
		zap.Int("lines", len(lines)),
	)
	return job.ID
}

// DequeueNext atomically pops the head of the FIFO and marks it Printing.
// The second return is false when there is no work, which pollers treat as
// "no work now", not an error.
func (q *Queue) DequeueNext() (domain.PrintJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return domain.PrintJob{}, false
	}
	id := q.pending[0]
	q.pending = q.pending[1:]

	job := q.jobs[id]
	now := time.Now().UTC()
	job.Status = domain.JobPrinting
	job.PrintStartedAt = &now
	job.Attempts++

	return cloneJob(job), true
}

// MarkCompleted finalizes a job as Completed. Calling it on an already
// terminal job is an idempotent no-op: the bridge may retry a completion
// report after a network blip.
func (q *Queue) MarkCompleted(jobID string) error {
	return q.finalize(jobID, domain.JobCompleted, "")
}

// MarkFailed finalizes a job as Failed, recording the reported error.
// Idempotent on terminal jobs, like MarkCompleted.
func (q *Queue) MarkFailed(jobID, errMsg string) error {
	return q.finalize(jobID, domain.JobFailed, errMsg)
}

func (q *Queue) finalize(jobID string, status domain.JobStatus, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}
	if job.Status == domain.JobPending {
		q.removePending(jobID)
	}

	now := time.Now().UTC()
	job.Status = status
	job.CompletedAt = &now
	job.Error = errMsg

	if status == domain.JobFailed {
		q.logger.Warn("print job failed",
			zap.String("job_id", jobID),
			zap.String("order_key", job.OrderKey),
			zap.String("printer_error", errMsg),
		)
	} else {
		q.logger.Info("print job completed",
			zap.String("job_id", jobID),
			zap.String("order_key", job.OrderKey),
		)
	}
	return nil
}

// GetStatus returns a copy of the job, or domain.ErrNotFound.
func (q *Queue) GetStatus(jobID string) (domain.PrintJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return domain.PrintJob{}, domain.ErrNotFound
	}
	return cloneJob(job), nil
}

// RequeueStalled handles jobs stuck in Printing since before cutoff, which
// means the bridge most likely died mid-print. Each stalled job goes back
// to the head of the FIFO to preserve delivery order, unless it has already
// been attempted maxAttempts times, in which case it is marked Failed.
func (q *Queue) RequeueStalled(cutoff time.Time, maxAttempts int) (requeued, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	for id, job := range q.jobs {
		if job.Status != domain.JobPrinting || job.PrintStartedAt == nil || !job.PrintStartedAt.Before(cutoff) {
			continue
		}
		if job.Attempts >= maxAttempts {
			job.Status = domain.JobFailed
			job.CompletedAt = &now
			job.Error = "printer stalled"
			failed++
			q.logger.Warn("stalled print job failed permanently",
				zap.String("job_id", id),
				zap.String("order_key", job.OrderKey),
				zap.Int("attempts", job.Attempts),
			)
			continue
		}
		job.Status = domain.JobPending
		job.PrintStartedAt = nil
		q.pending = append([]string{id}, q.pending...)
		requeued++
		q.logger.Warn("stalled print job requeued",
			zap.String("job_id", id),
			zap.String("order_key", job.OrderKey),
			zap.Int("attempts", job.Attempts),
		)
	}
	return requeued, failed
}

// SweepTerminal removes terminal jobs finalized before cutoff from the
// registry. Pending and Printing jobs never age out here.
func (q *Queue) SweepTerminal(cutoff time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, job := range q.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(q.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		q.logger.Debug("swept terminal print jobs", zap.Int("removed", removed))
	}
	return removed
}

func (q *Queue) removePending(jobID string) {
	for i, id := range q.pending {
		if id == jobID {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func cloneJob(j *domain.PrintJob) domain.PrintJob {
	out := *j
	out.Lines = append([]string(nil), j.Lines...)
	if j.PrintStartedAt != nil {
		t := *j.PrintStartedAt
		out.PrintStartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
