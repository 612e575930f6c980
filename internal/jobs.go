package internal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a synthesis job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is a snapshot of one synthesis run's progress. Failure carries a single
// human-readable reason; partial success across threads is not a failure.
type Job struct {
	ID        string
	Status    JobStatus
	Processed int
	Total     int
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobStore tracks synthesis jobs for status polling. It replaces a global
// mutable map: instances are injected where needed and guarded by a mutex.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]Job
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]Job)}
}

// Create registers a new pending job and returns it.
func (s *JobStore) Create() Job {
	now := time.Now()
	job := Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a job snapshot by ID.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

// SetProgress marks a job running and records thread progress.
func (s *JobStore) SetProgress(id string, processed, total int) {
	s.update(id, func(j *Job) {
		j.Status = JobRunning
		j.Processed = processed
		j.Total = total
	})
}

// Complete marks a job finished.
func (s *JobStore) Complete(id string) {
	s.update(id, func(j *Job) {
		j.Status = JobCompleted
	})
}

// Fail marks a job failed with a human-readable reason.
func (s *JobStore) Fail(id, reason string) {
	s.update(id, func(j *Job) {
		j.Status = JobFailed
		j.Reason = reason
	})
}

// ExpireOlderThan drops jobs not updated within age and returns how many
// were removed.
func (s *JobStore) ExpireOlderThan(age time.Duration) int {
	cutoff := time.Now().Add(-age)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(&job)
	job.UpdatedAt = time.Now()
	s.jobs[id] = job
}
