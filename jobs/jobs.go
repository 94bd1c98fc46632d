// Package jobs tracks extraction runs: one job per requested URL
// batch, with a status lifecycle and the results attached on
// completion. The store is in-memory; persistence is a consumer
// concern.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omerfdk/restaurant-scraper/models"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Job struct {
	ID          string                     `json:"id"`
	URLs        []string                   `json:"urls"`
	Status      Status                     `json:"status"`
	Error       string                     `json:"error,omitempty"`
	Results     []*models.ExtractionResult `json:"results,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	StartedAt   *time.Time                 `json:"started_at,omitempty"`
	CompletedAt *time.Time                 `json:"completed_at,omitempty"`
}

// Store is a thread-safe in-memory job registry.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new pending job for the given URLs.
func (s *Store) Create(urls []string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		URLs:      append([]string(nil), urls...),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a copy of the job; mutations go through the Mark
// methods.
func (s *Store) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copy := *job
	return &copy, true
}

// List returns copies of all jobs, unordered.
func (s *Store) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copy := *job
		out = append(out, &copy)
	}
	return out
}

// MarkRunning transitions pending -> running.
func (s *Store) MarkRunning(id string) error {
	return s.transition(id, StatusRunning, func(job *Job) {
		now := time.Now().UTC()
		job.StartedAt = &now
	})
}

// MarkCompleted transitions running -> completed and attaches results.
func (s *Store) MarkCompleted(id string, results []*models.ExtractionResult) error {
	return s.transition(id, StatusCompleted, func(job *Job) {
		now := time.Now().UTC()
		job.CompletedAt = &now
		job.Results = results
	})
}

// MarkFailed transitions to failed with the causing error recorded.
func (s *Store) MarkFailed(id string, cause error) error {
	return s.transition(id, StatusFailed, func(job *Job) {
		now := time.Now().UTC()
		job.CompletedAt = &now
		if cause != nil {
			job.Error = cause.Error()
		}
	})
}

var validTransitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusFailed},
	StatusRunning: {StatusCompleted, StatusFailed},
}

func (s *Store) transition(id string, to Status, apply func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	allowed := false
	for _, next := range validTransitions[job.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("job %s: invalid transition %s -> %s", id, job.Status, to)
	}
	job.Status = to
	apply(job)
	return nil
}
