package pagination

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

// navigationAttempts bounds the Goto retries before a listing load fails.
const navigationAttempts = 3

// Source supplies listing pages to the Driver. Page numbers start at 1.
type Source interface {
	// Name identifies the mode in logs, journal entries and cursor keys.
	Name() string
	Label(page int) string
	// Last is the final page number, or 0 when unknown up front.
	Last() int
	Load(ctx context.Context, page int) error
	Profiles(ctx context.Context) ([]browser.Element, error)
	OnListing(page int) bool
	HasNext(ctx context.Context, page int) bool
	// SkipsEmpty reports whether a page without profiles moves on to the
	// next page instead of ending the run.
	SkipsEmpty() bool
}

// PagedSource walks <listing>?page=N.
type PagedSource struct {
	page       browser.Page
	resolver   *selector.Resolver
	pacer      ratelimit.Pacer
	shots      *browser.Screenshotter
	listingURL string
	logger     *slog.Logger
}

func NewPagedSource(page browser.Page, resolver *selector.Resolver, pacer ratelimit.Pacer, shots *browser.Screenshotter, listingURL string, logger *slog.Logger) *PagedSource {
	return &PagedSource{
		page:       page,
		resolver:   resolver,
		pacer:      pacer,
		shots:      shots,
		listingURL: listingURL,
		logger:     logger.With("component", "pagination", "mode", "paged"),
	}
}

func (s *PagedSource) Name() string { return "paged" }

func (s *PagedSource) Label(page int) string { return fmt.Sprintf("page %d", page) }

func (s *PagedSource) Last() int { return 0 }

func (s *PagedSource) SkipsEmpty() bool { return false }

// PageURL is the listing URL for one page.
func (s *PagedSource) PageURL(page int) string {
	u, err := url.Parse(s.listingURL)
	if err != nil {
		return fmt.Sprintf("%s?page=%d", s.listingURL, page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *PagedSource) Load(ctx context.Context, page int) error {
	target := s.PageURL(page)
	s.logger.Info("navigating to listing page", "page", page, "url", target)

	if err := browser.NavigateWithRetry(ctx, s.page, target, navigationAttempts, s.pacer, s.logger); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.shots.Capture(s.page, "navigation-error")
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return s.pacer.Pause(ctx, 3*time.Second, 5*time.Second)
}

func (s *PagedSource) Profiles(ctx context.Context) ([]browser.Element, error) {
	if err := s.pacer.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
		return nil, err
	}

	_, profiles := s.resolver.ResolveAll(s.page, selector.ProfileCards)
	if len(profiles) == 0 {
		s.logger.Warn("no profiles found on page")
		s.shots.Capture(s.page, "profiles-debug")
	}
	return profiles, nil
}

// OnListing compares the page query parameter of the current URL.
func (s *PagedSource) OnListing(page int) bool {
	u, err := url.Parse(s.page.URL())
	if err != nil {
		return false
	}
	return u.Query().Get("page") == strconv.Itoa(page)
}

func (s *PagedSource) HasNext(ctx context.Context, page int) bool {
	if ctx.Err() != nil {
		return false
	}
	return s.nextPageSignal()
}
