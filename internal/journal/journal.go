package journal

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one line of operator-visible activity.
type Entry struct {
	RunID     string    `json:"runId"`
	Kind      string    `json:"kind"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Run summarises all entries sharing a run id.
type Run struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Entries  int       `json:"entries"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	RunID string
	Since time.Time
	Limit int
}

// Storage keeps journal entries
type Storage interface {
	Append(e Entry) error

	// List returns entries oldest first
	List(f Filter) ([]Entry, error)

	// Runs returns run summaries, most recent first
	Runs(limit int) ([]Run, error)

	Close() error
}

// NewRunID returns a fresh identifier for a workflow or batch run.
func NewRunID() string {
	return uuid.NewString()
}

// Open picks the SQLite backend for a non-empty path and memory otherwise.
func Open(path string) (Storage, error) {
	if path == "" {
		return NewMemoryStorage(), nil
	}
	return NewSQLiteStorage(path)
}
