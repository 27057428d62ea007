package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Screenshotter writes diagnostic captures for failure branches. Captures are
// best-effort: a failed screenshot is logged and otherwise ignored.
type Screenshotter struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

func NewScreenshotter(dir string, logger *slog.Logger) *Screenshotter {
	return &Screenshotter{
		dir:    dir,
		logger: logger.With("component", "screenshots"),
		now:    time.Now,
	}
}

// Capture writes <name>.png, overwriting any earlier capture of the same name.
func (s *Screenshotter) Capture(page Page, name string) string {
	return s.write(page, name+".png")
}

// CaptureStamped writes <name>-<unix millis>.png so repeated failures don't
// collide.
func (s *Screenshotter) CaptureStamped(page Page, name string) string {
	return s.write(page, fmt.Sprintf("%s-%d.png", name, s.now().UnixMilli()))
}

func (s *Screenshotter) write(page Page, file string) string {
	path := file
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			s.logger.Warn("failed to create screenshot dir", "dir", s.dir, "error", err)
		}
		path = filepath.Join(s.dir, file)
	}

	if err := page.Screenshot(path); err != nil {
		s.logger.Warn("failed to capture screenshot", "path", path, "error", err)
		return ""
	}

	s.logger.Info("screenshot saved", "path", path)
	return path
}
