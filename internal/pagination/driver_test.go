package pagination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/browser/browsertest"
	"github.com/maltedev/outreach-bot/internal/messenger"
	"github.com/maltedev/outreach-bot/internal/models"
	"github.com/maltedev/outreach-bot/internal/progress"
	"github.com/maltedev/outreach-bot/internal/ratelimit"
	"github.com/maltedev/outreach-bot/internal/selector"
)

const message = "Hello from the test suite"

// site builds listing pages whose profiles open a page with a message dialog.
type site struct {
	t     *testing.T
	page  *browsertest.Page
	dir   string
	cards map[string]*browsertest.Element
}

func newSite(t *testing.T) *site {
	return &site{
		t:     t,
		page:  browsertest.NewPage("about:blank"),
		dir:   t.TempDir(),
		cards: make(map[string]*browsertest.Element),
	}
}

func pageURL(n int) string {
	return fmt.Sprintf("%s?page=%d", listingURL, n)
}

// listing adds a page with the given profiles. A profile name starting with
// "mute-" has no message button.
func (s *site) listing(n int, html string, profiles ...string) {
	u := pageURL(n)
	s.page.SetHTML(u, html)
	for _, name := range profiles {
		profileURL := "https://site.test/chefs/" + name
		card := &browsertest.Element{
			Name:    name,
			Visible: true,
			Tag:     "a",
			Attrs:   map[string]string{"href": "/chefs/" + name},
		}
		card.OnClick = func() { s.page.Navigate(profileURL) }
		s.cards[name] = card
		s.page.Add(u, cardSel, card)

		if len(name) < 5 || name[:5] != "mute-" {
			s.page.Add(profileURL, `button:has-text("Message")`, browsertest.Visible("message"))
		}
		s.page.Add(profileURL, "textarea", browsertest.Visible("input"))
		s.page.Add(profileURL, `button:has-text("Send")`, browsertest.Visible("send"))
	}
}

func (s *site) store() *progress.FileStore {
	return progress.NewFileStore(filepath.Join(s.dir, ".progress.json"), 1, slog.Default())
}

func (s *site) cursor() (int, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, ".progress.json"))
	if err != nil {
		return 0, false
	}
	page, err := s.store().Load(context.Background())
	require.NoError(s.t, err)
	require.NotEmpty(s.t, data)
	return page, true
}

func (s *site) driver(opts ...Option) *Driver {
	logger := slog.Default()
	resolver := selector.NewResolver(logger)
	shots := browser.NewScreenshotter(s.dir, logger)
	src := NewPagedSource(s.page, resolver, ratelimit.NoPause{}, shots, listingURL, logger)
	sender := messenger.New(s.page, resolver, ratelimit.NoPause{}, shots, logger)
	return NewDriver(src, s.store(), sender, ratelimit.NewAdaptiveRateLimiter(0, 0), ratelimit.NoPause{}, message, logger, opts...)
}

func TestDriver_SinglePageAllSent(t *testing.T) {
	s := newSite(t)
	s.listing(1, "<body></body>", "ann", "bob", "cy")

	res, err := s.driver().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RunResult{PagesProcessed: 1, MessagesSent: 3}, res)
	_, exists := s.cursor()
	assert.False(t, exists, "cursor should be cleared at the end")
	for _, card := range s.cards {
		assert.Equal(t, 1, card.Clicks)
	}
}

func TestDriver_MissingMessageButtons(t *testing.T) {
	s := newSite(t)
	s.listing(1, "<body></body>", "mute-a", "bob", "mute-c")

	res, err := s.driver().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.MessagesSent)
	assert.Equal(t, 2, res.MessagesSkipped)
	assert.Equal(t, pageURL(1), s.page.URL())
	assert.Equal(t, 3, s.page.Backs)
	assert.Equal(t, []string{pageURL(1)}, s.page.Gotos, "listing was restored without re-navigation")
	assert.Len(t, s.page.Shots, 2)
}

func TestDriver_FollowsPages(t *testing.T) {
	s := newSite(t)
	s.listing(1, "<body>Page 1 of 2</body>", "ann")
	s.listing(2, "<body>Page 2 of 2</body>", "bob", "cy")

	res, err := s.driver().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RunResult{PagesProcessed: 2, MessagesSent: 3}, res)
	assert.Equal(t, []string{pageURL(1), pageURL(2)}, s.page.Gotos)
	_, exists := s.cursor()
	assert.False(t, exists)
}

func TestDriver_ResumesFromCursor(t *testing.T) {
	s := newSite(t)
	s.listing(1, "<body>Page 1 of 2</body>", "ann")
	s.listing(2, "<body>Page 2 of 2</body>", "bob")
	require.NoError(t, s.store().Save(context.Background(), 2))

	res, err := s.driver().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RunResult{PagesProcessed: 1, MessagesSent: 1}, res)
	assert.Zero(t, s.cards["ann"].Clicks)
	assert.Equal(t, []string{pageURL(2)}, s.page.Gotos)
}

func TestDriver_NavigationFailureKeepsCursor(t *testing.T) {
	s := newSite(t)
	s.listing(1, "<body>Page 1 of 3</body>", "ann")
	s.page.GotoErr = func(u string) error {
		if u == pageURL(2) {
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}

	res, err := s.driver().Run(context.Background())

	require.ErrorIs(t, err, ErrNavigation)
	assert.Equal(t, RunResult{PagesProcessed: 1, MessagesSent: 1}, res)
	cursor, exists := s.cursor()
	require.True(t, exists)
	assert.Equal(t, 2, cursor)
}

func TestDriver_EmptyPageEndsRun(t *testing.T) {
	s := newSite(t)
	s.listing(1, "<body>Page 1 of 5</body>")

	res, err := s.driver().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RunResult{}, res)
	_, exists := s.cursor()
	assert.False(t, exists)
}

func TestDriver_ReturnsToListingAfterDrift(t *testing.T) {
	s := newSite(t)
	s.listing(1, "<body></body>", "ann", "bob")
	// ann's profile opens in place of the listing, so going back lands on
	// about:blank.
	s.cards["ann"].OnClick = func() {
		_ = s.page.GoBack()
		s.page.Navigate("https://site.test/chefs/ann")
	}

	res, err := s.driver().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.MessagesSent)
	assert.Equal(t, []string{pageURL(1), pageURL(1)}, s.page.Gotos)
}

// scriptedSource serves fixed pages and lets tests hook HasNext.
type scriptedSource struct {
	pages     map[int][]browser.Element
	onHasNext func(page int) bool
	loads     []int
}

func (s *scriptedSource) Name() string          { return "scripted" }
func (s *scriptedSource) Label(page int) string { return fmt.Sprintf("p%d", page) }
func (s *scriptedSource) Last() int             { return 0 }
func (s *scriptedSource) SkipsEmpty() bool      { return false }
func (s *scriptedSource) OnListing(int) bool    { return true }

func (s *scriptedSource) Load(_ context.Context, page int) error {
	s.loads = append(s.loads, page)
	return nil
}

func (s *scriptedSource) Profiles(context.Context) ([]browser.Element, error) {
	return s.pages[s.loads[len(s.loads)-1]], nil
}

func (s *scriptedSource) HasNext(_ context.Context, page int) bool {
	return s.onHasNext(page)
}

type senderFunc func(ctx context.Context, profile browser.Element, message string) messenger.Outcome

func (f senderFunc) Send(ctx context.Context, profile browser.Element, message string) messenger.Outcome {
	return f(ctx, profile, message)
}

func alwaysSent(context.Context, browser.Element, string) messenger.Outcome {
	return messenger.Outcome{Sent: true}
}

func cards(names ...string) []browser.Element {
	out := make([]browser.Element, 0, len(names))
	for _, n := range names {
		out = append(out, &browsertest.Element{Name: n, Visible: true, Attrs: map[string]string{"href": "/chefs/" + n}})
	}
	return out
}

func TestDriver_CursorBeforeNextPageCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".progress.json")
	store := progress.NewFileStore(path, 1, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []int
	src := &scriptedSource{
		pages: map[int][]browser.Element{1: cards("a"), 2: cards("b"), 3: cards("c")},
		onHasNext: func(page int) bool {
			saved, err := progress.NewFileStore(path, 1, slog.Default()).Load(context.Background())
			require.NoError(t, err)
			seen = append(seen, saved)
			if page == 2 {
				// Interrupted after the item loop, before the check completes.
				cancel()
			}
			return true
		},
	}

	d := NewDriver(src, store, senderFunc(alwaysSent), ratelimit.NewAdaptiveRateLimiter(0, 0), ratelimit.NoPause{}, message, slog.Default())
	res, err := d.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 2, res.PagesProcessed)

	resumed, err := progress.NewFileStore(path, 1, slog.Default()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, resumed)
}

func TestDriver_CancelMidPageKeepsPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".progress.json")
	store := progress.NewFileStore(path, 1, slog.Default())
	require.NoError(t, store.Save(context.Background(), 3))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	sender := senderFunc(func(ctx context.Context, _ browser.Element, _ string) messenger.Outcome {
		calls++
		cancel()
		return messenger.Outcome{Reason: messenger.ReasonCancelled, Err: ctx.Err()}
	})
	src := &scriptedSource{
		pages:     map[int][]browser.Element{3: cards("a", "b")},
		onHasNext: func(int) bool { return false },
	}

	res, err := NewDriver(src, store, sender, ratelimit.NewAdaptiveRateLimiter(0, 0), ratelimit.NoPause{}, message, slog.Default()).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Zero(t, res.PagesProcessed)

	resumed, err := progress.NewFileStore(path, 1, slog.Default()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, resumed)
}

func TestDriver_DelayBetweenSends(t *testing.T) {
	store := progress.NewFileStore(filepath.Join(t.TempDir(), ".progress.json"), 1, slog.Default())

	var starts, ends []time.Time
	sender := senderFunc(func(context.Context, browser.Element, string) messenger.Outcome {
		starts = append(starts, time.Now())
		time.Sleep(150 * time.Millisecond)
		ends = append(ends, time.Now())
		return messenger.Outcome{Sent: true}
	})
	src := &scriptedSource{
		pages:     map[int][]browser.Element{1: cards("a", "b", "c")},
		onHasNext: func(int) bool { return false },
	}

	limiter := ratelimit.NewAdaptiveRateLimiter(100*time.Millisecond, 120*time.Millisecond)
	res, err := NewDriver(src, store, sender, limiter, ratelimit.NoPause{}, message, slog.Default()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, res.MessagesSent)
	require.Len(t, starts, 3)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(ends[i-1])
		assert.GreaterOrEqual(t, gap, 90*time.Millisecond, "gap before send %d", i+1)
	}
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Contacted(ctx context.Context, profileKey string) (bool, error) {
	args := m.Called(ctx, profileKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournal) Record(ctx context.Context, attempt *models.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func TestDriver_Journal(t *testing.T) {
	ctx := context.Background()
	store := progress.NewFileStore(filepath.Join(t.TempDir(), ".progress.json"), 1, slog.Default())
	tracker := NewTracker()

	journal := new(MockJournal)
	journal.On("Contacted", mock.Anything, "/chefs/a").Return(true, nil)
	journal.On("Contacted", mock.Anything, "/chefs/b").Return(false, nil)
	journal.On("Contacted", mock.Anything, "/chefs/c").Return(false, errors.New("db down"))
	journal.On("Record", mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
		return a.RunID == tracker.RunID() && a.Mode == "scripted" && a.Page == 1 && a.Sent
	})).Return(nil).Twice()

	var sentTo []string
	sender := senderFunc(func(_ context.Context, profile browser.Element, _ string) messenger.Outcome {
		href, _ := profile.Attribute("href")
		sentTo = append(sentTo, href)
		return messenger.Outcome{Sent: true}
	})
	src := &scriptedSource{
		pages:     map[int][]browser.Element{1: cards("a", "b", "c")},
		onHasNext: func(int) bool { return false },
	}

	d := NewDriver(src, store, sender, ratelimit.NewAdaptiveRateLimiter(0, 0), ratelimit.NoPause{}, message, slog.Default(),
		WithJournal(journal), WithTracker(tracker))
	res, err := d.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, RunResult{PagesProcessed: 1, MessagesSent: 2, AlreadyContacted: 1}, res)
	assert.Equal(t, []string{"/chefs/b", "/chefs/c"}, sentTo)
	journal.AssertExpectations(t)

	status := tracker.Snapshot()
	assert.Equal(t, models.RunRunning, status.State)
	assert.Equal(t, 2, status.MessagesSent)
	assert.Equal(t, 1, status.AlreadyContacted)
	assert.Equal(t, 1, status.PagesProcessed)
}
