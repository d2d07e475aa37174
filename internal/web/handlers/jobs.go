package handlers

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/stockcsv"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// GenerateJob represents an async generation run.
type GenerateJob struct {
	EventBroadcaster

	ID            string             `json:"id"`
	Subject       string             `json:"subject"`
	Status        JobStatus          `json:"status"`
	Progress      int                `json:"progress"`
	TotalRows     int                `json:"total_rows"`
	ProcessedRows int                `json:"processed_rows"`
	Error         string             `json:"error,omitempty"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	Options       GenerateRequest    `json:"options"`
	Result        *GenerateJobResult `json:"result,omitempty"`

	records []stockcsv.Record
}

// MarshalJSON encodes the job under its read lock.
func (j *GenerateJob) MarshalJSON() ([]byte, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	type plain GenerateJob
	return json.Marshal((*plain)(j))
}

// GetStatus returns the current job status (implements SSEJob).
func (j *GenerateJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Records returns the generated rows. ok is false until the run has stopped.
func (j *GenerateJob) Records() (records []stockcsv.Record, ok bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.records, j.Result != nil
}

// finished reports whether the background run has stopped.
func (j *GenerateJob) finished() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Result != nil || j.Status == JobStatusFailed
}

// Cancel cancels the generation job.
func (j *GenerateJob) Cancel() {
	j.EventBroadcaster.Cancel()
	j.mu.Lock()
	if !isJobTerminal(j.Status) {
		j.Status = JobStatusCancelled
	}
	j.mu.Unlock()
}

// GenerateJobResult is the summary of a finished job.
type GenerateJobResult struct {
	Rows       int               `json:"rows"`
	AIFailures int               `json:"ai_failures"`
	Cancelled  bool              `json:"cancelled"`
	Seed       uint64            `json:"seed"`
	DurationMs int64             `json:"duration_ms"`
	Preview    []stockcsv.Record `json:"preview"`
	Usage      *UsageInfo        `json:"usage,omitempty"`
}

// UsageInfo represents API usage information.
type UsageInfo struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

func (b *EventBroadcaster) setCancel(cancel context.CancelFunc) {
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*GenerateJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*GenerateJob),
	}
}

// CreateJob creates a new generation job.
func (m *JobManager) CreateJob(id string, options GenerateRequest, totalRows int) *GenerateJob {
	job := &GenerateJob{
		ID:        id,
		Subject:   options.Subject,
		Status:    JobStatusPending,
		TotalRows: totalRows,
		StartedAt: time.Now(),
		Options:   options,
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *GenerateJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}

// ListJobs returns all jobs, newest first.
func (m *JobManager) ListJobs() []*GenerateJob {
	m.mu.RLock()
	jobs := make([]*GenerateJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].StartedAt.After(jobs[k].StartedAt)
	})
	return jobs
}
