package browser_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/browser/browsertest"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
)

type recordingPacer struct {
	pauses []time.Duration
}

func (p *recordingPacer) Pause(ctx context.Context, min, _ time.Duration) error {
	p.pauses = append(p.pauses, min)
	return ctx.Err()
}

func TestNavigateWithRetry(t *testing.T) {
	const target = "https://site.test/individuals"

	t.Run("succeeds after failures with growing backoff", func(t *testing.T) {
		page := browsertest.NewPage("about:blank")
		failures := 2
		page.GotoErr = func(string) error {
			if failures > 0 {
				failures--
				return errors.New("net::ERR_TIMED_OUT")
			}
			return nil
		}
		pacer := &recordingPacer{}

		err := browser.NavigateWithRetry(context.Background(), page, target, 3, pacer, slog.Default())

		require.NoError(t, err)
		assert.Len(t, page.Gotos, 3)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, pacer.pauses)
		assert.Equal(t, target, page.URL())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		page := browsertest.NewPage("about:blank")
		cause := errors.New("blocked")
		page.GotoErr = func(string) error { return cause }

		err := browser.NavigateWithRetry(context.Background(), page, target, 3, ratelimit.NoPause{}, slog.Default())

		require.ErrorIs(t, err, cause)
		assert.Len(t, page.Gotos, 3)
	})

	t.Run("cancellation stops retrying", func(t *testing.T) {
		page := browsertest.NewPage("about:blank")
		page.GotoErr = func(string) error { return errors.New("blocked") }
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := browser.NavigateWithRetry(ctx, page, target, 3, ratelimit.NoPause{}, slog.Default())

		require.ErrorIs(t, err, context.Canceled)
		assert.Len(t, page.Gotos, 1)
	})
}
