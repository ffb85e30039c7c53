// Package jobs tracks background build jobs: the orchestrator is the single
// writer, status pollers read concurrently.
package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"sync"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status will never change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Job kinds.
const (
	KindBuild  = "build"
	KindUpdate = "update"
)

// Job is a point-in-time snapshot of one tracked job.
type Job struct {
	ID             string
	Kind           string
	Path           string
	Status         Status
	TotalFiles     int
	ProcessedFiles int
	CurrentFile    string
	Warnings       int
	Errors         []string
	StartedAt      time.Time
	EndedAt        time.Time // zero until terminal
	Estimated      time.Duration
}

// Manager is the in-memory job registry.
type Manager struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string // creation order, oldest first
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{jobs: make(map[string]*Job)}
}

// Create registers a new pending job and returns its snapshot.
func (m *Manager) Create(kind, path string, estimated time.Duration) Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	j := &Job{
		ID:        newID(),
		Kind:      kind,
		Path:      path,
		Status:    StatusPending,
		StartedAt: time.Now(),
		Estimated: estimated,
	}
	m.jobs[j.ID] = j
	m.order = append(m.order, j.ID)
	return snapshot(j)
}

// Start marks the job running.
func (m *Manager) Start(id string) {
	m.update(id, func(j *Job) { j.Status = StatusRunning })
}

// SetTotal records how many files the job will process.
func (m *Manager) SetTotal(id string, n int) {
	m.update(id, func(j *Job) { j.TotalFiles = n })
}

// SetCurrentFile records the file being processed.
func (m *Manager) SetCurrentFile(id, file string) {
	m.update(id, func(j *Job) { j.CurrentFile = file })
}

// SetProcessed records how many files have finished.
func (m *Manager) SetProcessed(id string, n int) {
	m.update(id, func(j *Job) { j.ProcessedFiles = n })
}

// AddWarning counts one skipped-file warning.
func (m *Manager) AddWarning(id string) {
	m.update(id, func(j *Job) { j.Warnings++ })
}

// Complete marks the job finished successfully.
func (m *Manager) Complete(id string) {
	m.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.EndedAt = time.Now()
	})
}

// Fail marks the job failed and records its errors.
func (m *Manager) Fail(id string, errs ...string) {
	m.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.EndedAt = time.Now()
		j.Errors = append(j.Errors, errs...)
	})
}

// Cancel marks the job cancelled and records why.
func (m *Manager) Cancel(id string, errs ...string) {
	m.update(id, func(j *Job) {
		j.Status = StatusCancelled
		j.EndedAt = time.Now()
		j.Errors = append(j.Errors, errs...)
	})
}

// Get returns a snapshot of the job, reporting whether it exists.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(j), true
}

// List returns snapshots of every job, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Job, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, snapshot(m.jobs[m.order[i]]))
	}
	return out
}

// update applies fn under the write lock. Unknown ids are ignored.
func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[id]; ok {
		fn(j)
	}
}

// snapshot copies a job so callers never share the registry's memory.
func snapshot(j *Job) Job {
	out := *j
	out.Errors = slices.Clone(j.Errors)
	return out
}

func newID() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
