package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

var ErrLoginFormNotFound = errors.New("login form not found")

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// Result describes how EnsureLoggedIn ended.
type Result int

const (
	AlreadyAuthenticated Result = iota
	LoggedIn
	// Unconfirmed means the form was submitted but no logged-in indicator
	// showed up afterwards. Callers treat it as success.
	Unconfirmed
	Failed
)

func (r Result) String() string {
	switch r {
	case AlreadyAuthenticated:
		return "already_authenticated"
	case LoggedIn:
		return "logged_in"
	case Unconfirmed:
		return "unconfirmed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// OK reports whether the run may proceed without manual intervention.
func (r Result) OK() bool {
	return r != Failed
}

type Credentials struct {
	Email    string
	Password string
}

type Authenticator struct {
	page     browser.Page
	resolver *selector.Resolver
	pacer    ratelimit.Pacer
	shots    *browser.Screenshotter
	creds    Credentials
	loginURL string
	logger   *slog.Logger
}

func NewAuthenticator(page browser.Page, resolver *selector.Resolver, pacer ratelimit.Pacer, shots *browser.Screenshotter, creds Credentials, loginURL string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		page:     page,
		resolver: resolver,
		pacer:    pacer,
		shots:    shots,
		creds:    creds,
		loginURL: loginURL,
		logger:   logger.With("component", "auth"),
	}
}

// State probes the page for any visible logged-in indicator.
func (a *Authenticator) State() State {
	if a.resolver.Resolve(a.page, selector.LoggedInIndicators) != nil {
		return Authenticated
	}
	return Unauthenticated
}

// EnsureLoggedIn is a no-op when a session is already active; otherwise it
// drives the login form. The error is non-nil only for Failed.
func (a *Authenticator) EnsureLoggedIn(ctx context.Context) (Result, error) {
	a.logger.Info("checking login status")

	if a.State() == Authenticated {
		a.logger.Info("already logged in")
		return AlreadyAuthenticated, nil
	}

	a.logger.Info("login required, attempting automatic login")
	return a.login(ctx)
}

func (a *Authenticator) login(ctx context.Context) (Result, error) {
	if err := a.openLoginForm(ctx); err != nil {
		a.shots.Capture(a.page, "login-error")
		return Failed, err
	}

	email := a.resolver.Resolve(a.page, selector.EmailInput)
	if email == nil {
		a.logger.Error("could not find email input field")
		a.shots.Capture(a.page, "login-form-debug")
		return Failed, fmt.Errorf("%w: email input", ErrLoginFormNotFound)
	}
	if err := email.Fill(a.creds.Email); err != nil {
		a.shots.Capture(a.page, "login-error")
		return Failed, fmt.Errorf("failed to fill email: %w", err)
	}
	if err := a.pacer.Pause(ctx, time.Second, 1500*time.Millisecond); err != nil {
		return Failed, err
	}

	// Some flows ask for a one-time code first and only show the password
	// field after an explicit choice.
	if step := a.resolver.Resolve(a.page, selector.PasswordStep); step != nil {
		if err := step.Click(); err != nil {
			a.logger.Warn("failed to click password step", "error", err)
		}
		if err := a.pacer.Pause(ctx, time.Second, 1500*time.Millisecond); err != nil {
			return Failed, err
		}
	}

	password := a.resolver.Resolve(a.page, selector.PasswordInput)
	if password == nil {
		password = a.resolver.Resolve(a.page, selector.PasswordInput.AnyVisibility())
		if password != nil {
			a.logger.Info("using password input that may be hidden")
		}
	}
	if password == nil {
		a.logger.Error("could not find password input field")
		a.shots.Capture(a.page, "login-form-debug")
		return Failed, fmt.Errorf("%w: password input", ErrLoginFormNotFound)
	}
	if err := password.Fill(a.creds.Password); err != nil {
		a.shots.Capture(a.page, "login-error")
		return Failed, fmt.Errorf("failed to fill password: %w", err)
	}
	if err := a.pacer.Pause(ctx, 500*time.Millisecond, time.Second); err != nil {
		return Failed, err
	}

	if submit := a.resolver.Resolve(a.page, selector.SubmitButton); submit != nil {
		if err := submit.Click(); err != nil {
			a.logger.Warn("failed to click submit, pressing Enter", "error", err)
			a.pressEnter()
		}
	} else {
		a.logger.Warn("submit button not found, trying Enter key")
		a.pressEnter()
	}

	a.logger.Info("waiting for login to complete")
	if err := a.pacer.Pause(ctx, 3*time.Second, 5*time.Second); err != nil {
		return Failed, err
	}

	if a.State() == Authenticated {
		a.logger.Info("login successful")
		return LoggedIn, nil
	}

	a.logger.Warn("login status unclear, continuing")
	a.shots.Capture(a.page, "login-result")
	return Unconfirmed, nil
}

// openLoginForm goes straight to the login URL when one is configured and
// otherwise looks for a login link on the current page.
func (a *Authenticator) openLoginForm(ctx context.Context) error {
	if a.loginURL != "" {
		a.logger.Info("navigating to login page", "url", a.loginURL)
		if err := a.page.Goto(a.loginURL); err != nil {
			return fmt.Errorf("failed to open login page: %w", err)
		}
		return a.pacer.Pause(ctx, time.Second, 2*time.Second)
	}

	link := a.resolver.Resolve(a.page, selector.LoginAffordance)
	if link == nil {
		return fmt.Errorf("%w: no login link", ErrLoginFormNotFound)
	}
	if err := link.Click(); err != nil {
		return fmt.Errorf("failed to click login link: %w", err)
	}
	return a.pacer.Pause(ctx, time.Second, 2*time.Second)
}

func (a *Authenticator) pressEnter() {
	if err := a.page.Press("Enter"); err != nil {
		a.logger.Warn("failed to press Enter", "error", err)
	}
}
