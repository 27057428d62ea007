// Package progress persists the pagination cursor: the next listing page to
// (re)process. A missing record means "start from the beginning".
package progress

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidCursor = errors.New("invalid progress cursor")

// Store keeps one cursor. Load falls back to the configured start page when
// nothing usable is stored; Clear marks pagination as complete.
type Store interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, page int) error
	Clear(ctx context.Context) error
}

func validate(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCursor, page)
	}
	return nil
}
