package pagination

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/outreach-bot/internal/browser"
	"github.com/maltedev/outreach-bot/internal/selector"
)

var (
	pageOfPattern = regexp.MustCompile(`(?i)page\s+(\d+)\s+of\s+(\d+)`)
	slashPattern  = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// PageInfo is a "current of total" pair read from the page text.
type PageInfo struct {
	Current int
	Total   int
}

func (p PageInfo) HasNext() bool {
	return p.Current < p.Total
}

func (p PageInfo) String() string {
	return fmt.Sprintf("%d of %d", p.Current, p.Total)
}

// ParsePageInfo looks for "Page X of Y".
func ParsePageInfo(text string) (PageInfo, bool) {
	return match(pageOfPattern, text)
}

// ParseSlashInfo looks for the looser "X / Y". It also matches things like
// dates, so it is only consulted after every other signal.
func ParseSlashInfo(text string) (PageInfo, bool) {
	return match(slashPattern, text)
}

func match(re *regexp.Regexp, text string) (PageInfo, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return PageInfo{}, false
	}
	current, err := strconv.Atoi(m[1])
	if err != nil {
		return PageInfo{}, false
	}
	total, err := strconv.Atoi(m[2])
	if err != nil || total < 1 {
		return PageInfo{}, false
	}
	return PageInfo{Current: current, Total: total}, true
}

// pageText returns the visible text of the document body.
func pageText(page browser.Page) (string, error) {
	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page content: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}

// nextPageSignal reports whether the listing has a page after the current one.
//
// Order: an explicit "Page X of Y" wins over everything; then any visible,
// enabled next-page control; then a loose "X / Y". No signal means no next page.
func (s *PagedSource) nextPageSignal() bool {
	text, err := pageText(s.page)
	if err != nil {
		s.logger.Warn("failed to read page text", "error", err)
	}

	if info, ok := ParsePageInfo(text); ok {
		s.logger.Info("page info", "info", info.String(), "has_next", info.HasNext())
		return info.HasNext()
	}

	if s.enabledNextControl() {
		return true
	}

	if info, ok := ParseSlashInfo(text); ok {
		s.logger.Info("page info from slash pattern", "info", info.String(), "has_next", info.HasNext())
		return info.HasNext()
	}

	s.logger.Info("no next page signal found")
	return false
}

func (s *PagedSource) enabledNextControl() bool {
	for _, cand := range selector.NextPage.List {
		elems, err := s.page.QueryAll(cand.Expr)
		if err != nil {
			continue
		}
		for _, el := range elems {
			if visible, err := el.IsVisible(); err != nil || !visible {
				continue
			}
			disabled, err := el.IsDisabled()
			if err != nil {
				continue
			}
			if disabled {
				s.logger.Info("next page control is disabled", "selector", cand.Expr)
				continue
			}
			s.logger.Info("found enabled next page control", "selector", cand.Expr)
			return true
		}
	}
	return false
}
