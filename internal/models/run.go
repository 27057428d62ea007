package models

import (
	"time"

	"github.com/google/uuid"
)

type RunState string

const (
	RunPending   RunState = "pending"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunStopped   RunState = "stopped"
	RunFailed    RunState = "failed"
)

// RunStatus is a point-in-time view of a run, served by the status API.
type RunStatus struct {
	RunID            uuid.UUID `json:"run_id"`
	State            RunState  `json:"state"`
	Mode             string    `json:"mode,omitempty"`
	Page             int       `json:"page,omitempty"`
	Label            string    `json:"label,omitempty"`
	PagesProcessed   int       `json:"pages_processed"`
	MessagesSent     int       `json:"messages_sent"`
	MessagesSkipped  int       `json:"messages_skipped"`
	AlreadyContacted int       `json:"already_contacted"`
	LastError        string    `json:"last_error,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
