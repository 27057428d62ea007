package location

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

// Updater drives the city/state filter. Every step degrades to a keyboard
// fallback instead of failing; only a broken page or cancellation does.
type Updater struct {
	page     browser.Page
	resolver *selector.Resolver
	pacer    ratelimit.Pacer
	shots    *browser.Screenshotter
	logger   *slog.Logger
}

func NewUpdater(page browser.Page, resolver *selector.Resolver, pacer ratelimit.Pacer, shots *browser.Screenshotter, logger *slog.Logger) *Updater {
	return &Updater{
		page:     page,
		resolver: resolver,
		pacer:    pacer,
		shots:    shots,
		logger:   logger.With("component", "location"),
	}
}

func (u *Updater) Update(ctx context.Context, raw string) (Location, error) {
	loc := Parse(raw)
	u.logger.Info("updating location", "location", raw, "city", loc.City, "state", loc.State)

	if err := u.update(ctx, loc); err != nil {
		u.logger.Error("failed to update location", "location", raw, "error", err)
		u.shots.Capture(u.page, "location-debug")
		return loc, err
	}

	u.logger.Info("location updated", "location", loc.String())
	return loc, nil
}

func (u *Updater) update(ctx context.Context, loc Location) error {
	if control := u.resolver.Resolve(u.page, selector.LocationControl); control != nil {
		if err := control.Click(); err != nil {
			u.logger.Warn("failed to open location control", "error", err)
		}
		if err := u.pacer.Pause(ctx, 1500*time.Millisecond, 2500*time.Millisecond); err != nil {
			return err
		}
	}

	if err := u.fillCity(ctx, loc.City); err != nil {
		return err
	}
	if loc.State != "" {
		if err := u.fillState(ctx, loc.State); err != nil {
			return err
		}
	}

	if err := u.pacer.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
		return err
	}

	if apply := u.resolver.Resolve(u.page, selector.ApplyButton); apply != nil {
		if err := apply.Click(); err != nil {
			u.logger.Warn("failed to apply location", "error", err)
			return nil
		}
		if err := u.pacer.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
			return err
		}
		u.logger.Info("applied location")
	}
	return nil
}

func (u *Updater) fillCity(ctx context.Context, city string) error {
	input := u.resolver.Resolve(u.page, selector.CityInput)
	if input != nil && u.fillField(ctx, input, city) {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	u.logger.Warn("city input not usable, typing into focused element")
	if err := u.page.Type(city); err != nil {
		return fmt.Errorf("failed to type city: %w", err)
	}
	return u.pacer.Pause(ctx, time.Second, 1500*time.Millisecond)
}

func (u *Updater) fillState(ctx context.Context, state string) error {
	input := u.resolver.Resolve(u.page, selector.StateInput)
	if input != nil {
		tag, err := input.TagName()
		if err == nil && tag == "select" {
			if err := input.SelectOption(state); err == nil {
				return u.pacer.Pause(ctx, time.Second, 1500*time.Millisecond)
			}
			u.logger.Warn("failed to select state option", "state", state, "error", err)
		} else if u.fillField(ctx, input, state) {
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	u.logger.Warn("state input not usable, trying Tab and typing")
	if err := u.page.Press("Tab"); err != nil {
		return fmt.Errorf("failed to press Tab: %w", err)
	}
	if err := u.pacer.Pause(ctx, 500*time.Millisecond, time.Second); err != nil {
		return err
	}
	if err := u.page.Type(state); err != nil {
		return fmt.Errorf("failed to type state: %w", err)
	}
	return u.pacer.Pause(ctx, time.Second, 1500*time.Millisecond)
}

// fillField clicks then fills a text input. It reports false when the
// interaction faulted so the caller can use its fallback.
func (u *Updater) fillField(ctx context.Context, input browser.Element, value string) bool {
	if err := input.Click(); err != nil {
		u.logger.Warn("failed to focus input", "error", err)
		return false
	}
	if err := u.pacer.Pause(ctx, 500*time.Millisecond, time.Second); err != nil {
		return false
	}
	if err := input.Fill(value); err != nil {
		u.logger.Warn("failed to fill input", "error", err)
		return false
	}
	return u.pacer.Pause(ctx, time.Second, 1500*time.Millisecond) == nil
}
