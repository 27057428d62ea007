package location

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/browser/browsertest"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in    string
		city  string
		state string
	}{
		{"Austin, TX", "Austin", "TX"},
		{"Somewhere", "Somewhere", ""},
		{"  New York ,NY ", "New York", "NY"},
		{"Portland, Oregon", "Portland", "Oregon"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			city, state := Split(tt.in)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.state, state)
		})
	}
}

func TestFullStateName(t *testing.T) {
	assert.Equal(t, "Texas", FullStateName("TX"))
	assert.Equal(t, "Texas", FullStateName("tx"))
	assert.Equal(t, "District of Columbia", FullStateName("DC"))
	assert.Equal(t, "Oregon", FullStateName("Oregon"))
	assert.Equal(t, "ZZ", FullStateName("ZZ"))
	assert.Equal(t, "", FullStateName(""))
	assert.Len(t, stateNames, 51)
}

func TestParse(t *testing.T) {
	assert.Equal(t, Location{City: "Austin", State: "Texas"}, Parse("Austin, TX"))
	assert.Equal(t, Location{City: "Somewhere"}, Parse("Somewhere"))
	assert.Equal(t, "Austin, Texas", Parse("Austin, TX").String())
	assert.Equal(t, "Somewhere", Parse("Somewhere").String())
}

const listingURL = "https://site.test/individuals"

func newUpdater(t *testing.T, page browser.Page) *Updater {
	t.Helper()
	logger := slog.Default()
	return NewUpdater(page, selector.NewResolver(logger), ratelimit.NoPause{},
		browser.NewScreenshotter(t.TempDir(), logger), logger)
}

func TestUpdate_TextInputs(t *testing.T) {
	page := browsertest.NewPage(listingURL)
	control := browsertest.Visible("location control")
	city := browsertest.Visible("city")
	state := &browsertest.Element{Visible: true, Tag: "input"}
	apply := browsertest.Visible("apply")
	page.Add(listingURL, `button[aria-label*="location"]`, control)
	page.Add(listingURL, `input[placeholder*="city" i]`, city)
	page.Add(listingURL, `input[placeholder*="state" i]`, state)
	page.Add(listingURL, `button:has-text("Apply")`, apply)

	loc, err := newUpdater(t, page).Update(context.Background(), "Austin, TX")

	require.NoError(t, err)
	assert.Equal(t, Location{City: "Austin", State: "Texas"}, loc)
	assert.Equal(t, 1, control.Clicks)
	assert.Equal(t, []string{"Austin"}, city.Filled)
	assert.Equal(t, []string{"Texas"}, state.Filled)
	assert.Equal(t, 1, apply.Clicks)
	assert.Empty(t, page.Typed)
}

func TestUpdate_SelectState(t *testing.T) {
	page := browsertest.NewPage(listingURL)
	page.Add(listingURL, `input[name*="city" i]`, browsertest.Visible("city"))
	state := &browsertest.Element{Visible: true, Tag: "select"}
	page.Add(listingURL, `select[name*="state" i]`, state)

	_, err := newUpdater(t, page).Update(context.Background(), "Seattle, WA")

	require.NoError(t, err)
	assert.Equal(t, []string{"Washington"}, state.Selected)
	assert.Empty(t, state.Filled)
}

func TestUpdate_KeyboardFallbacks(t *testing.T) {
	page := browsertest.NewPage(listingURL)

	loc, err := newUpdater(t, page).Update(context.Background(), "Denver, CO")

	require.NoError(t, err)
	assert.Equal(t, "Colorado", loc.State)
	assert.Equal(t, []string{"Denver", "Colorado"}, page.Typed)
	assert.Equal(t, []string{"Tab"}, page.Pressed)
	assert.Empty(t, page.Shots)
}

func TestUpdate_FillFaultFallsBackToTyping(t *testing.T) {
	page := browsertest.NewPage(listingURL)
	city := browsertest.Visible("city")
	city.FillErr = errors.New("element detached")
	page.Add(listingURL, `input[placeholder*="city" i]`, city)

	_, err := newUpdater(t, page).Update(context.Background(), "Somewhere")

	require.NoError(t, err)
	assert.Equal(t, []string{"Somewhere"}, page.Typed)
	assert.Empty(t, page.Pressed)
}

func TestUpdate_BrokenPageReportsFailure(t *testing.T) {
	page := browsertest.NewPage(listingURL)
	page.TypeErr = errors.New("target closed")

	_, err := newUpdater(t, page).Update(context.Background(), "Austin, TX")

	require.Error(t, err)
	require.Len(t, page.Shots, 1)
	assert.Equal(t, "location-debug.png", filepath.Base(page.Shots[0]))
}
