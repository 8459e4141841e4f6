// Package worker runs video synthesis jobs in the background so the poll
// loop of a long-running provider operation never blocks an API request.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dqalex/OmniSpark/internal/engine"
	"github.com/dqalex/OmniSpark/internal/model"
)

// JobQueued is the state of a job that has not been claimed yet.
const JobQueued engine.VideoState = "queued"

// Job is one submitted video synthesis. The exported fields form the status
// snapshot served to clients.
type Job struct {
	ID         string             `json:"id"`
	State      engine.VideoState  `json:"state"`
	Error      string             `json:"error,omitempty"`
	ErrorKind  model.ErrorKind    `json:"error_kind,omitempty"`
	ArtifactID string             `json:"artifact_id,omitempty"`
	SessionID  string             `json:"session_id"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`

	request engine.VideoRequest
	history engine.VideoAppender
}

// Queue holds jobs in memory. Jobs are claimed in submission order.
type Queue struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	pending []string
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{jobs: make(map[string]*Job)}
}

// Enqueue registers a job and returns its snapshot.
func (q *Queue) Enqueue(sessionID string, req engine.VideoRequest, hist engine.VideoAppender) Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		State:     JobQueued,
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
		request:   req,
		history:   hist,
	}
	q.jobs[job.ID] = job
	q.pending = append(q.pending, job.ID)
	return *job
}

// claimNext pops the oldest queued job, or nil if none is waiting.
func (q *Queue) claimNext() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	id := q.pending[0]
	q.pending = q.pending[1:]
	return q.jobs[id]
}

// Get returns a job snapshot.
func (q *Queue) Get(id string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (q *Queue) setState(id string, st engine.VideoState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		job.State = st
		job.UpdatedAt = time.Now()
	}
}

func (q *Queue) finish(id string, artifactID string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return
	}
	job.UpdatedAt = time.Now()
	if err != nil {
		job.State = engine.VideoFailed
		job.Error = err.Error()
		job.ErrorKind = model.KindOf(err)
		return
	}
	job.State = engine.VideoReady
	job.ArtifactID = artifactID
}

// Worker claims queued jobs and drives the synthesizer.
type Worker struct {
	queue    *Queue
	synth    *engine.Synthesizer
	interval time.Duration
	logger   *slog.Logger
}

// New creates a new Worker. interval is the idle sleep between queue checks.
func New(queue *Queue, synth *engine.Synthesizer, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{queue: queue, synth: synth, interval: interval, logger: logger}
}

// Start begins the claim loop. It blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("video worker started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("video worker stopped")
			return
		default:
		}

		job := w.queue.claimNext()
		if job == nil {
			w.sleep(ctx)
			continue
		}

		w.logger.Info("running video job", "job_id", job.ID, "concept", job.request.Concept.Title)
		artifact, err := w.synth.Run(ctx, job.request, job.history, func(st engine.VideoState) {
			w.queue.setState(job.ID, st)
		})
		if err != nil {
			w.logger.Error("video job failed", "job_id", job.ID, "error", err)
			w.queue.finish(job.ID, "", err)
			continue
		}
		w.queue.finish(job.ID, artifact.ID, nil)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.interval):
	}
}
