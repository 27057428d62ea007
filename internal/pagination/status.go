package pagination

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/outreach-bot/internal/models"
)

// Tracker keeps the live run status. The Driver writes it from the run loop
// and the status API reads snapshots concurrently.
type Tracker struct {
	mu     sync.RWMutex
	status models.RunStatus
	now    func() time.Time
}

func NewTracker() *Tracker {
	now := time.Now().UTC()
	return &Tracker{
		status: models.RunStatus{
			RunID:     uuid.New(),
			State:     models.RunPending,
			StartedAt: now,
			UpdatedAt: now,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (t *Tracker) RunID() uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status.RunID
}

func (t *Tracker) Snapshot() models.RunStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Tracker) update(fn func(s *models.RunStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.status)
	t.status.UpdatedAt = t.now()
}

func (t *Tracker) start(mode string) {
	t.update(func(s *models.RunStatus) {
		s.State = models.RunRunning
		s.Mode = mode
		s.LastError = ""
	})
}

func (t *Tracker) page(page int, label string) {
	t.update(func(s *models.RunStatus) {
		s.Page = page
		s.Label = label
	})
}

func (t *Tracker) pageDone() {
	t.update(func(s *models.RunStatus) { s.PagesProcessed++ })
}

func (t *Tracker) sent() {
	t.update(func(s *models.RunStatus) { s.MessagesSent++ })
}

func (t *Tracker) skipped() {
	t.update(func(s *models.RunStatus) { s.MessagesSkipped++ })
}

func (t *Tracker) alreadyContacted() {
	t.update(func(s *models.RunStatus) { s.AlreadyContacted++ })
}

// Finish records the final state of one Driver run.
func (t *Tracker) Finish(state models.RunState, err error) {
	t.update(func(s *models.RunStatus) {
		s.State = state
		if err != nil {
			s.LastError = err.Error()
		}
	})
}
