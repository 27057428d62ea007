// Package messenger drives the per-profile "open profile, open message dialog,
// send, return" flow. Every failure is converted into a skipped outcome after
// trying to return the browser to the listing.
package messenger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

const (
	inputWait = 2 * time.Second
	sendWait  = 3 * time.Second
)

// Skip reasons.
const (
	ReasonMessageButtonNotFound = "message_button_not_found"
	ReasonSendButtonNotFound    = "send_button_not_found"
	ReasonInteractionFault      = "interaction_fault"
	ReasonCancelled             = "cancelled"
)

type Outcome struct {
	Sent   bool
	Reason string
	// Err carries the underlying fault for interaction failures and
	// cancellation.
	Err error
}

func sent() Outcome { return Outcome{Sent: true} }

func skipped(reason string, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

func (o Outcome) String() string {
	if o.Sent {
		return "sent"
	}
	return "skipped: " + o.Reason
}

type Messenger struct {
	page     browser.Page
	resolver *selector.Resolver
	pacer    ratelimit.Pacer
	shots    *browser.Screenshotter
	logger   *slog.Logger
}

func New(page browser.Page, resolver *selector.Resolver, pacer ratelimit.Pacer, shots *browser.Screenshotter, logger *slog.Logger) *Messenger {
	return &Messenger{
		page:     page,
		resolver: resolver,
		pacer:    pacer,
		shots:    shots,
		logger:   logger.With("component", "messenger"),
	}
}

// Send messages one profile. profile is the listing entry to click.
func (m *Messenger) Send(ctx context.Context, profile browser.Element, message string) Outcome {
	m.logger.Info("attempting to send message to profile")

	out := m.send(ctx, profile, message)
	switch {
	case out.Sent:
		m.logger.Info("message sent")
	case out.Reason == ReasonCancelled:
		m.logger.Warn("message flow cancelled", "error", out.Err)
	default:
		m.logger.Warn("profile skipped", "reason", out.Reason, "error", out.Err)
	}
	return out
}

func (m *Messenger) send(ctx context.Context, profile browser.Element, message string) Outcome {
	listing := m.page.URL()
	if err := profile.Click(); err != nil {
		if m.page.URL() != listing {
			m.goBack(ctx)
		}
		return m.fault(ctx, ReasonInteractionFault, fmt.Errorf("failed to open profile: %w", err))
	}
	if err := m.pacer.Pause(ctx, 3500*time.Millisecond, 5500*time.Millisecond); err != nil {
		return skipped(ReasonCancelled, err)
	}

	button := m.resolver.Resolve(m.page, selector.MessageButton)
	if button == nil {
		m.logger.Warn("message button not found")
		m.shots.CaptureStamped(m.page, "message-button-debug")
		m.goBack(ctx)
		return m.fault(ctx, ReasonMessageButtonNotFound, nil)
	}

	if err := button.Click(); err != nil {
		m.goBack(ctx)
		return m.fault(ctx, ReasonInteractionFault, fmt.Errorf("failed to click message button: %w", err))
	}
	m.logger.Info("waiting for message dialog")
	if err := m.pacer.Pause(ctx, 3500*time.Millisecond, 5500*time.Millisecond); err != nil {
		return skipped(ReasonCancelled, err)
	}

	if input := m.resolver.WaitFor(m.page, selector.MessageInput, inputWait); input != nil {
		if err := input.Fill(message); err != nil {
			m.dismiss(ctx)
			m.goBack(ctx)
			return m.fault(ctx, ReasonInteractionFault, fmt.Errorf("failed to fill message: %w", err))
		}
		if err := m.pacer.Pause(ctx, time.Second, 1500*time.Millisecond); err != nil {
			return skipped(ReasonCancelled, err)
		}
		m.logger.Info("message filled in dialog")
	} else {
		m.logger.Warn("message input not found, sending without filling")
	}

	sendButton := m.resolver.WaitFor(m.page, selector.SendButton, sendWait)
	if sendButton == nil {
		m.logger.Warn("send button in dialog not found")
		m.shots.CaptureStamped(m.page, "send-button-dialog-debug")
		m.dismiss(ctx)
		m.goBack(ctx)
		return m.fault(ctx, ReasonSendButtonNotFound, nil)
	}

	if err := sendButton.Click(); err != nil {
		m.dismiss(ctx)
		m.goBack(ctx)
		return m.fault(ctx, ReasonInteractionFault, fmt.Errorf("failed to click send: %w", err))
	}
	if err := m.pacer.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
		// Already submitted.
		return sent()
	}

	m.dismiss(ctx)
	m.goBack(ctx)
	return sent()
}

// fault builds a skipped outcome, preferring cancellation when the context
// ended while recovering.
func (m *Messenger) fault(ctx context.Context, reason string, err error) Outcome {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return skipped(ReasonCancelled, ctxErr)
	}
	return skipped(reason, err)
}

// dismiss closes any residual overlay with Escape.
func (m *Messenger) dismiss(ctx context.Context) {
	if err := m.page.Press("Escape"); err != nil {
		m.logger.Debug("failed to press Escape", "error", err)
		return
	}
	_ = m.pacer.Pause(ctx, time.Second, 1500*time.Millisecond)
}

func (m *Messenger) goBack(ctx context.Context) {
	if err := m.page.GoBack(); err != nil {
		m.logger.Warn("failed to navigate back", "error", err)
		return
	}
	_ = m.pacer.Pause(ctx, 2*time.Second, 3*time.Second)
}
