package pagination

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/location"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

const (
	DefaultMaxScrollAttempts = 20

	scrollByViewport = "window.scrollBy(0, window.innerHeight)"
	scrollToTop      = "window.scrollTo(0, 0)"
)

// LocationUpdater applies a city filter on the listing.
type LocationUpdater interface {
	Update(ctx context.Context, raw string) (location.Location, error)
}

// ScrollSource treats each configured city as one page of an infinite-scroll
// listing: page k is cities[k-1].
type ScrollSource struct {
	page              browser.Page
	resolver          *selector.Resolver
	pacer             ratelimit.Pacer
	updater           LocationUpdater
	shots             *browser.Screenshotter
	listingURL        string
	cities            []string
	maxScrollAttempts int
	manualWait        time.Duration
	logger            *slog.Logger
}

type ScrollConfig struct {
	ListingURL        string
	Cities            []string
	MaxScrollAttempts int
	// ManualWait is how long to leave the browser to the operator when the
	// listing cannot be opened.
	ManualWait time.Duration
}

func NewScrollSource(page browser.Page, resolver *selector.Resolver, pacer ratelimit.Pacer, updater LocationUpdater, shots *browser.Screenshotter, cfg ScrollConfig, logger *slog.Logger) *ScrollSource {
	if cfg.MaxScrollAttempts <= 0 {
		cfg.MaxScrollAttempts = DefaultMaxScrollAttempts
	}
	return &ScrollSource{
		page:              page,
		resolver:          resolver,
		pacer:             pacer,
		updater:           updater,
		shots:             shots,
		listingURL:        cfg.ListingURL,
		cities:            cfg.Cities,
		maxScrollAttempts: cfg.MaxScrollAttempts,
		manualWait:        cfg.ManualWait,
		logger:            logger.With("component", "pagination", "mode", "cities"),
	}
}

func (s *ScrollSource) Name() string { return "cities" }

func (s *ScrollSource) Last() int { return len(s.cities) }

func (s *ScrollSource) SkipsEmpty() bool { return true }

func (s *ScrollSource) Label(page int) string {
	if page < 1 || page > len(s.cities) {
		return fmt.Sprintf("city %d", page)
	}
	return s.cities[page-1]
}

// Load opens the listing when needed and applies the city filter. Neither a
// failed navigation nor a failed filter stops the run: the operator may fix
// the page by hand during the manual wait.
func (s *ScrollSource) Load(ctx context.Context, page int) error {
	if page < 1 || page > len(s.cities) {
		return fmt.Errorf("no city for page %d of %d", page, len(s.cities))
	}
	city := s.cities[page-1]
	s.logger.Info("processing location", "city", city, "index", page, "total", len(s.cities))

	if !s.OnListing(page) {
		if err := browser.NavigateWithRetry(ctx, s.page, s.listingURL, navigationAttempts, s.pacer, s.logger); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("failed to open listing, waiting for manual navigation",
				"url", s.listingURL, "wait", s.manualWait, "error", err)
			s.shots.Capture(s.page, "navigation-error")
			if err := s.pacer.Pause(ctx, s.manualWait, s.manualWait); err != nil {
				return err
			}
		} else if err := s.pacer.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
			return err
		}
	}

	if _, err := s.updater.Update(ctx, city); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("location update failed, continuing", "city", city, "error", err)
		return s.pacer.Pause(ctx, 2*time.Second, 3*time.Second)
	}
	return s.pacer.Pause(ctx, 3*time.Second, 4*time.Second)
}

// Profiles scrolls until two consecutive counts agree or the attempt cap is
// hit, then returns every card.
func (s *ScrollSource) Profiles(ctx context.Context) ([]browser.Element, error) {
	if err := s.pacer.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
		return nil, err
	}

	cand, initial := s.resolver.ResolveAll(s.page, selector.ProfileCards)
	if len(initial) == 0 {
		s.logger.Warn("no profiles found for location")
		s.shots.Capture(s.page, "profiles-debug")
		return nil, nil
	}

	prev := len(initial)
	for attempt := 1; attempt <= s.maxScrollAttempts; attempt++ {
		if _, err := s.page.Evaluate(scrollByViewport); err != nil {
			s.logger.Warn("failed to scroll", "error", err)
			break
		}
		if err := s.pacer.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
			return nil, err
		}

		count := s.resolver.Count(s.page, cand)
		s.logger.Debug("scrolled listing", "attempt", attempt, "count", count)
		if count == prev {
			s.logger.Info("reached end of list", "count", count)
			break
		}
		prev = count
	}

	if _, err := s.page.Evaluate(scrollToTop); err != nil {
		s.logger.Debug("failed to scroll to top", "error", err)
	}
	if err := s.pacer.Pause(ctx, time.Second, 2*time.Second); err != nil {
		return nil, err
	}

	profiles, err := s.page.QueryAll(cand.Expr)
	if err != nil {
		return nil, fmt.Errorf("failed to collect profiles: %w", err)
	}
	s.logger.Info("total profiles found", "count", len(profiles))
	return profiles, nil
}

// OnListing compares scheme, host and path with the listing URL. The city
// filter lives in page state, not in the URL.
func (s *ScrollSource) OnListing(int) bool {
	want, err := url.Parse(s.listingURL)
	if err != nil {
		return false
	}
	got, err := url.Parse(s.page.URL())
	if err != nil {
		return false
	}
	return got.Scheme == want.Scheme && got.Host == want.Host && got.Path == want.Path
}

func (s *ScrollSource) HasNext(_ context.Context, page int) bool {
	return page < len(s.cities)
}
