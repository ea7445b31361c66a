// Package turns runs questions asynchronously: the API publishes a pending
// turn, a worker pool answers it through the engine, and clients poll the
// outcome. A turn runs at most once; there is no queue-level retry, since
// the model clients already retry transport failures internally.
package turns

import (
	"time"

	"finassist/internal/engine"
)

// Status is the lifecycle state of an asynchronous turn.
type Status string

const (
	// StatusPending indicates the turn is waiting for a worker.
	StatusPending Status = "pending"
	// StatusRunning indicates the turn is being answered.
	StatusRunning Status = "running"
	// StatusCompleted indicates the turn finished with a result.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the turn could not run at all, for example
	// because its session disappeared. Engine-level failures never land
	// here; they complete with a user-facing message instead.
	StatusFailed Status = "failed"
)

// Turn is one asynchronous question run against a session.
type Turn struct {
	ID          string         `json:"turn_id"`
	SessionID   string         `json:"session_id"`
	Question    string         `json:"question"`
	UserID      string         `json:"user_id"`
	Status      Status         `json:"status"`
	Result      *engine.Result `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
