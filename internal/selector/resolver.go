package selector

import (
	"log/slog"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
)

// Resolver turns a candidate list into a concrete element. A miss is a normal
// outcome and is reported as nil, never as an error.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger.With("component", "resolver")}
}

// Resolve returns the first element matched by the first candidate that
// yields one, honouring each candidate's visibility requirement. Query faults
// skip to the next candidate.
func (r *Resolver) Resolve(scope browser.Scope, cands Candidates) browser.Element {
	for _, cand := range cands.List {
		elems, err := scope.QueryAll(cand.Expr)
		if err != nil {
			r.logger.Debug("candidate query failed", "role", cands.Role, "selector", cand.Expr, "error", err)
			continue
		}

		for _, el := range elems {
			if !cand.Visible {
				r.found(cands, cand)
				return el
			}
			visible, err := el.IsVisible()
			if err != nil {
				r.logger.Debug("visibility check failed", "role", cands.Role, "selector", cand.Expr, "error", err)
				continue
			}
			if visible {
				r.found(cands, cand)
				return el
			}
		}
	}

	r.logger.Debug("no candidate matched", "role", cands.Role)
	return nil
}

// ResolveAll returns every element of the first candidate that matches at
// least one. Visibility is not checked: lists of cards are often partly
// off-screen.
func (r *Resolver) ResolveAll(scope browser.Scope, cands Candidates) (Candidate, []browser.Element) {
	for _, cand := range cands.List {
		elems, err := scope.QueryAll(cand.Expr)
		if err != nil {
			r.logger.Debug("candidate query failed", "role", cands.Role, "selector", cand.Expr, "error", err)
			continue
		}
		if len(elems) > 0 {
			r.logger.Info("found elements", "role", cands.Role, "selector", cand.Expr, "count", len(elems))
			return cand, elems
		}
	}
	return Candidate{}, nil
}

// WaitFor gives each candidate up to timeout to become visible, in order.
func (r *Resolver) WaitFor(page browser.Page, cands Candidates, timeout time.Duration) browser.Element {
	for _, cand := range cands.List {
		el, err := page.WaitVisible(cand.Expr, timeout)
		if err != nil || el == nil {
			continue
		}
		r.found(cands, cand)
		return el
	}

	r.logger.Debug("no candidate became visible", "role", cands.Role, "timeout", timeout)
	return nil
}

// Count reports how many elements a single candidate matches, zero on fault.
func (r *Resolver) Count(scope browser.Scope, cand Candidate) int {
	elems, err := scope.QueryAll(cand.Expr)
	if err != nil {
		return 0
	}
	return len(elems)
}

func (r *Resolver) found(cands Candidates, cand Candidate) {
	r.logger.Info("found element", "role", cands.Role, "selector", cand.Expr, "kind", cand.Kind.String())
}
