package uploader

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fpang/photo-uploader/internal/mediastore"
	"github.com/fpang/photo-uploader/internal/notify"
)

// TaskState is a task's position in its lifecycle.
type TaskState int32

const (
	StateCreated TaskState = iota
	StateQueued
	StateRunning
	StateSucceeded
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Task uploads one capture. It is consumed once by the queue worker.
type Task struct {
	ID       uuid.UUID
	Capture  mediastore.Capture
	Notifier notify.Notifier

	// AlbumID is set once the album has been resolved.
	AlbumID string

	state atomic.Int32
}

// NewTask binds capture to its notifier.
func NewTask(capture mediastore.Capture, n notify.Notifier) *Task {
	return &Task{ID: uuid.New(), Capture: capture, Notifier: n}
}

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// MarkQueued records that the task was accepted by the queue.
func (t *Task) MarkQueued() {
	t.state.CompareAndSwap(int32(StateCreated), int32(StateQueued))
}

func (t *Task) setState(s TaskState) {
	t.state.Store(int32(s))
}
