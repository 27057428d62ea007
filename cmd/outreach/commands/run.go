package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/maltedev/outreach-bot/internal/api"
	"github.com/maltedev/outreach-bot/internal/auth"
	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/config"
	"github.com/maltedev/outreach-bot/internal/database"
	"github.com/maltedev/outreach-bot/internal/location"
	"github.com/maltedev/outreach-bot/internal/messenger"
	"github.com/maltedev/outreach-bot/internal/models"
	"github.com/maltedev/outreach-bot/internal/pagination"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

var (
	runMode     string
	runHeadless bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Log in and message every profile on the listing, resuming from the saved cursors.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = runHeadless
		}

		modes, err := selectModes(runMode, cfg.Outreach)
		if err != nil {
			return err
		}

		return run(cmd.Context(), cfg, modes, cmd.OutOrStdout(), log)
	},
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "", "which listing to work through: paged, cities or all (default: the modes enabled in the config)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run the browser without a window")
	rootCmd.AddCommand(runCmd)
}

// selectModes resolves the --mode flag against the config toggles. An empty
// flag runs whatever the config enables.
func selectModes(flag string, cfg config.OutreachConfig) ([]string, error) {
	var modes []string
	switch flag {
	case "":
		if cfg.RunPaged {
			modes = append(modes, modePaged)
		}
		if cfg.RunCities {
			modes = append(modes, modeCities)
		}
	case modePaged:
		modes = []string{modePaged}
	case modeCities:
		modes = []string{modeCities}
	case modeAll:
		modes = []string{modePaged, modeCities}
	default:
		return nil, fmt.Errorf("unknown mode %q, expected %s, %s or %s", flag, modePaged, modeCities, modeAll)
	}

	for _, mode := range modes {
		if mode == modeCities && len(cfg.Cities) == 0 {
			return nil, fmt.Errorf("cities mode needs at least one entry in outreach.cities")
		}
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("no mode enabled")
	}
	return modes, nil
}

func browserOptions(cfg config.BrowserConfig) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Headless
	opts.SlowMo = cfg.SlowMo()
	opts.Timeout = cfg.PageTimeout()
	opts.ActionTimeout = cfg.ActionTimeout()
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		opts.ViewportWidth = cfg.ViewportWidth
		opts.ViewportHeight = cfg.ViewportHeight
	}
	if cfg.AcceptLanguage != "" {
		opts.AcceptLanguage = cfg.AcceptLanguage
	}
	if cfg.TimezoneID != "" {
		opts.TimezoneID = cfg.TimezoneID
	}
	if cfg.Locale != "" {
		opts.Locale = cfg.Locale
	}
	return opts
}

type modeResult struct {
	mode string
	res  pagination.RunResult
	err  error
}

func run(ctx context.Context, cfg *config.Config, modes []string, out io.Writer, log *slog.Logger) error {
	stores, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	if !cfg.Resume.Enabled {
		for _, mode := range modes {
			if err := stores[mode].Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear %s cursor: %w", mode, err)
			}
		}
		log.Info("resume disabled, starting from the first page")
	}

	var journal *database.AttemptRepository
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		journal = database.NewAttemptRepository(db)
		if err := journal.EnsureSchema(ctx); err != nil {
			return err
		}
		log.Info("outreach journal enabled")
	}

	tracker := pagination.NewTracker()
	log = log.With("run_id", tracker.RunID())

	if cfg.Server.Addr != "" {
		var lister api.AttemptLister
		if journal != nil {
			lister = journal
		}
		handlers := api.NewHandlers(tracker, lister, stores, log)
		srv := api.NewServer(cfg.Server.Addr, api.NewRouter(handlers, cfg.Server.AllowedOrigins, log), cfg.Server.ShutdownTimeout(), log)

		srvCtx, stopServer := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.Run(srvCtx); err != nil {
				log.Error("status server stopped", "error", err)
			}
		}()
		defer func() {
			stopServer()
			<-done
		}()
	}

	b, err := browser.New(browserOptions(cfg.Browser))
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Error("failed to close browser", "error", err)
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		return err
	}

	resolver := selector.NewResolver(log)
	pacer := ratelimit.NewRandomPacer()
	shots := browser.NewScreenshotter(cfg.Browser.ScreenshotDir, log)

	if err := login(ctx, cfg, page, resolver, pacer, shots, log); err != nil {
		tracker.Finish(models.RunStopped, err)
		log.Info("run interrupted during login")
		return nil
	}

	results := make([]modeResult, 0, len(modes))
	for _, mode := range modes {
		var source pagination.Source
		switch mode {
		case modeCities:
			updater := location.NewUpdater(page, resolver, pacer, shots, log)
			source = pagination.NewScrollSource(page, resolver, pacer, updater, shots, pagination.ScrollConfig{
				ListingURL:        cfg.Site.ListingURL(),
				Cities:            cfg.Outreach.Cities,
				MaxScrollAttempts: cfg.Outreach.MaxScrollAttempts,
				ManualWait:        cfg.Outreach.ManualNavigationWait(),
			}, log)
		default:
			source = pagination.NewPagedSource(page, resolver, pacer, shots, cfg.Site.ListingURL(), log)
		}

		delay := cfg.Outreach.DelayBetweenActions()
		opts := []pagination.Option{pagination.WithTracker(tracker)}
		if journal != nil {
			opts = append(opts, pagination.WithJournal(journal))
		}
		driver := pagination.NewDriver(
			source,
			stores[mode],
			messenger.New(page, resolver, pacer, shots, log),
			ratelimit.NewAdaptiveRateLimiter(delay, delay+time.Second),
			pacer,
			cfg.Outreach.Message,
			log,
			opts...,
		)

		res, err := driver.Run(ctx)
		results = append(results, modeResult{mode: mode, res: res, err: err})
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			log.Error("mode stopped early, cursor kept for the next run", "mode", mode, "error", err)
		}
	}

	renderSummary(out, results)
	return finish(ctx, tracker, results, log)
}

// login waits for the operator when the automatic login fails. The error is
// non-nil only when ctx is cancelled during that wait.
func login(ctx context.Context, cfg *config.Config, page browser.Page, resolver *selector.Resolver, pacer ratelimit.Pacer, shots *browser.Screenshotter, log *slog.Logger) error {
	if err := page.Goto(cfg.Site.BaseURL); err != nil {
		log.Warn("failed to open the site", "url", cfg.Site.BaseURL, "error", err)
	}

	authenticator := auth.NewAuthenticator(page, resolver, pacer, shots, auth.Credentials{
		Email:    cfg.Credentials.Email,
		Password: cfg.Credentials.Password,
	}, cfg.Site.LoginURL(), log)

	result, err := authenticator.EnsureLoggedIn(ctx)
	log.Info("login finished", "result", result.String())
	if result.OK() {
		return nil
	}

	wait := cfg.Outreach.ManualLoginWait()
	log.Warn("automatic login failed, please log in manually in the browser", "error", err, "wait", wait)
	return pacer.Pause(ctx, wait, wait)
}

func finish(ctx context.Context, tracker *pagination.Tracker, results []modeResult, log *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		tracker.Finish(models.RunStopped, err)
		log.Info("run interrupted, progress saved")
		return nil
	}

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.mode, r.err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		tracker.Finish(models.RunFailed, err)
		return err
	}

	tracker.Finish(models.RunCompleted, nil)
	log.Info("run completed")
	return nil
}

func renderSummary(out io.Writer, results []modeResult) {
	t := newTable(out)
	t.SetTitle("Outreach Summary")
	t.AppendHeader(table.Row{"Mode", "Pages", "Sent", "Skipped", "Already Contacted", "Status"})

	var total pagination.RunResult
	for _, r := range results {
		status := "done"
		if r.err != nil {
			status = r.err.Error()
		}
		t.AppendRow(table.Row{r.mode, r.res.PagesProcessed, r.res.MessagesSent, r.res.MessagesSkipped, r.res.AlreadyContacted, status})
		total.Add(r.res)
	}
	t.AppendFooter(table.Row{"Total", total.PagesProcessed, total.MessagesSent, total.MessagesSkipped, total.AlreadyContacted, ""})
	t.Render()
}
