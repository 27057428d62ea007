// Package pagination runs the outreach loop over listing pages and keeps the
// resume cursor pointing at the next page to (re)process.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/messenger"
	"github.com/maltedev/outreach-bot/internal/models"
	"github.com/maltedev/outreach-bot/internal/progress"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
)

var ErrNavigation = errors.New("listing navigation failed")

// Sender messages a single profile.
type Sender interface {
	Send(ctx context.Context, profile browser.Element, message string) messenger.Outcome
}

// Limiter paces consecutive sends and adapts to their outcome. Done marks
// the end of a send so Wait measures the gap from there.
type Limiter interface {
	Wait(ctx context.Context) error
	Done()
	RecordSuccess()
	RecordError()
}

// Journal remembers attempts across runs. A nil Journal disables it.
type Journal interface {
	Contacted(ctx context.Context, profileKey string) (bool, error)
	Record(ctx context.Context, attempt *models.Attempt) error
}

type RunResult struct {
	PagesProcessed   int
	MessagesSent     int
	MessagesSkipped  int
	AlreadyContacted int
}

func (r *RunResult) Add(o RunResult) {
	r.PagesProcessed += o.PagesProcessed
	r.MessagesSent += o.MessagesSent
	r.MessagesSkipped += o.MessagesSkipped
	r.AlreadyContacted += o.AlreadyContacted
}

type Driver struct {
	source  Source
	store   progress.Store
	sender  Sender
	limiter Limiter
	pacer   ratelimit.Pacer
	journal Journal
	tracker *Tracker
	message string
	logger  *slog.Logger
}

type Option func(*Driver)

func WithJournal(j Journal) Option {
	return func(d *Driver) { d.journal = j }
}

func WithTracker(t *Tracker) Option {
	return func(d *Driver) { d.tracker = t }
}

func NewDriver(source Source, store progress.Store, sender Sender, limiter Limiter, pacer ratelimit.Pacer, message string, logger *slog.Logger, opts ...Option) *Driver {
	d := &Driver{
		source:  source,
		store:   store,
		sender:  sender,
		limiter: limiter,
		pacer:   pacer,
		message: message,
		logger:  logger.With("component", "driver", "mode", source.Name()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.tracker == nil {
		d.tracker = NewTracker()
	}
	return d
}

// Run processes pages from the saved cursor until the source runs out. The
// cursor is saved as the current page before any work and after the page's
// profiles, advanced only once the next page is confirmed, and cleared at the
// end. A navigation failure stops the run with the cursor left in place.
func (d *Driver) Run(ctx context.Context) (RunResult, error) {
	var res RunResult

	page, err := d.store.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		d.logger.Warn("failed to load progress, using start page", "page", page, "error", err)
	}
	if last := d.source.Last(); last > 0 && page > last {
		d.logger.Warn("saved cursor is past the last page, starting over", "page", page, "last", last)
		page = 1
	}

	d.tracker.start(d.source.Name())
	d.logger.Info("starting pagination", "page", page)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		label := d.source.Label(page)
		d.tracker.page(page, label)
		d.logger.Info("processing page", "page", page, "label", label)
		d.save(ctx, page)

		if err := d.source.Load(ctx, page); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			d.logger.Error("failed to load page, stopping", "page", page, "error", err)
			return res, fmt.Errorf("%w: %s: %w", ErrNavigation, label, err)
		}

		profiles, err := d.source.Profiles(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			d.logger.Warn("failed to collect profiles", "page", page, "error", err)
		}

		if len(profiles) == 0 && !d.source.SkipsEmpty() {
			d.logger.Info("no profiles on page, pagination finished", "page", page)
			d.clear(ctx)
			return res, nil
		}

		pageRes, err := d.processPage(ctx, page, profiles)
		res.Add(pageRes)
		if err != nil {
			return res, err
		}
		res.PagesProcessed++
		d.tracker.pageDone()

		d.logger.Info("page summary",
			"page", page,
			"profiles", len(profiles),
			"sent", pageRes.MessagesSent,
			"skipped", pageRes.MessagesSkipped,
			"already_contacted", pageRes.AlreadyContacted,
		)

		d.save(ctx, page)

		hasNext := d.source.HasNext(ctx, page)
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !hasNext {
			d.logger.Info("reached the last page", "page", page)
			d.clear(ctx)
			return res, nil
		}

		page++
		d.save(ctx, page)
		d.logger.Info("moving to next page", "page", page)
		if err := d.pacer.Pause(ctx, 3*time.Second, 5*time.Second); err != nil {
			return res, err
		}
	}
}

func (d *Driver) processPage(ctx context.Context, page int, profiles []browser.Element) (RunResult, error) {
	var res RunResult

	for i, profile := range profiles {
		if i > 0 {
			if err := d.limiter.Wait(ctx); err != nil {
				return res, err
			}
		}

		d.logger.Info("processing profile", "index", i+1, "total", len(profiles), "page", page)

		if !d.source.OnListing(page) {
			d.logger.Warn("not on listing before profile, navigating back", "page", page)
			d.reload(ctx, page)
		}

		key := profileKey(profile)
		if d.contacted(ctx, key) {
			d.logger.Info("profile already contacted, skipping", "profile", key)
			res.AlreadyContacted++
			d.tracker.alreadyContacted()
			continue
		}

		out := d.sender.Send(ctx, profile, d.message)
		d.limiter.Done()
		if out.Reason == messenger.ReasonCancelled {
			return res, out.Err
		}

		if out.Sent {
			res.MessagesSent++
			d.tracker.sent()
			d.limiter.RecordSuccess()
		} else {
			res.MessagesSkipped++
			d.tracker.skipped()
			d.limiter.RecordError()
		}
		d.record(ctx, page, key, out)

		if !d.source.OnListing(page) {
			d.logger.Warn("not on listing after profile, navigating back", "page", page)
			d.reload(ctx, page)
		}
	}
	return res, nil
}

func (d *Driver) reload(ctx context.Context, page int) {
	if err := d.source.Load(ctx, page); err != nil {
		d.logger.Warn("failed to return to listing", "page", page, "error", err)
	}
}

// profileKey identifies a profile across runs by its link target.
func profileKey(profile browser.Element) string {
	href, err := profile.Attribute("href")
	if err != nil {
		return ""
	}
	return href
}

func (d *Driver) contacted(ctx context.Context, key string) bool {
	if d.journal == nil || key == "" {
		return false
	}
	ok, err := d.journal.Contacted(ctx, key)
	if err != nil {
		d.logger.Warn("failed to check journal", "profile", key, "error", err)
		return false
	}
	return ok
}

func (d *Driver) record(ctx context.Context, page int, key string, out messenger.Outcome) {
	if d.journal == nil || key == "" {
		return
	}
	a := models.NewAttempt(d.tracker.RunID(), d.source.Name(), page, key)
	a.Sent = out.Sent
	a.Reason = out.Reason
	if out.Err != nil {
		a.Error = out.Err.Error()
	}
	if err := d.journal.Record(ctx, a); err != nil {
		d.logger.Warn("failed to record attempt", "profile", key, "error", err)
	}
}

func (d *Driver) save(ctx context.Context, page int) {
	if err := d.store.Save(ctx, page); err != nil {
		d.logger.Warn("failed to save progress", "page", page, "error", err)
	}
}

func (d *Driver) clear(ctx context.Context) {
	if err := d.store.Clear(ctx); err != nil {
		d.logger.Warn("failed to clear progress", "error", err)
	}
}
