package browser_test

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/browser/browsertest"
)

func TestScreenshotter(t *testing.T) {
	dir := t.TempDir()
	shots := browser.NewScreenshotter(dir, slog.Default())

	t.Run("deterministic name", func(t *testing.T) {
		page := browsertest.NewPage("https://example.test")
		path := shots.Capture(page, "login-form-debug")

		assert.Equal(t, filepath.Join(dir, "login-form-debug.png"), path)
		require.Len(t, page.Shots, 1)
		assert.Equal(t, path, page.Shots[0])
	})

	t.Run("stamped names do not collide", func(t *testing.T) {
		page := browsertest.NewPage("https://example.test")
		first := shots.CaptureStamped(page, "message-button-debug")
		time.Sleep(2 * time.Millisecond)
		second := shots.CaptureStamped(page, "message-button-debug")

		assert.NotEqual(t, first, second)
		assert.Contains(t, filepath.Base(first), "message-button-debug-")
	})

	t.Run("failed capture is swallowed", func(t *testing.T) {
		page := browsertest.NewPage("https://example.test")
		page.ShotErr = errors.New("target closed")

		assert.Empty(t, shots.Capture(page, "navigation-error"))
	})
}
