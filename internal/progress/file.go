package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

type record struct {
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore keeps the cursor in a small JSON file.
type FileStore struct {
	mu        sync.Mutex
	path      string
	startPage int
	logger    *slog.Logger
}

func NewFileStore(path string, startPage int, logger *slog.Logger) *FileStore {
	if startPage < 1 {
		startPage = 1
	}
	return &FileStore{
		path:      path,
		startPage: startPage,
		logger:    logger.With("component", "progress", "path", path),
	}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read progress file, starting over", "error", err)
		}
		return s.startPage, nil
	}

	page, err := decode(data)
	if err != nil {
		s.logger.Warn("ignoring unusable progress file", "error", err)
		return s.startPage, nil
	}

	s.logger.Info("resuming from saved page", "page", page)
	return page, nil
}

// decode accepts the JSON record or a bare page number.
func decode(data []byte) (int, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, fmt.Errorf("%w: empty file", ErrInvalidCursor)
	}

	page, err := strconv.Atoi(text)
	if err != nil {
		var rec record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		page = rec.Page
	}

	if err := validate(page); err != nil {
		return 0, err
	}
	return page, nil
}

func (s *FileStore) Save(ctx context.Context, page int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(page); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(record{Page: page, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create progress dir: %w", err)
		}
	}

	// Write to temp file first so a crash never leaves a torn record
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace progress file: %w", err)
	}

	s.logger.Debug("progress saved", "page", page)
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	s.logger.Info("progress cleared")
	return nil
}
