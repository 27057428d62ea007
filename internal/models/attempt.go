package models

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one journaled message attempt.
type Attempt struct {
	ID         uuid.UUID `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	Mode       string    `json:"mode"`
	Page       int       `json:"page"`
	ProfileKey string    `json:"profile_key"`
	Sent       bool      `json:"sent"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewAttempt(runID uuid.UUID, mode string, page int, profileKey string) *Attempt {
	return &Attempt{
		ID:         uuid.New(),
		RunID:      runID,
		Mode:       mode,
		Page:       page,
		ProfileKey: profileKey,
		CreatedAt:  time.Now().UTC(),
	}
}

func (a *Attempt) Validate() []string {
	var errors []string

	if a.ProfileKey == "" {
		errors = append(errors, "profile key is required")
	}

	if a.Page < 1 {
		errors = append(errors, "page must be positive")
	}

	if !a.Sent && a.Reason == "" {
		errors = append(errors, "skipped attempt needs a reason")
	}

	return errors
}
