package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Scope is anything elements can be looked up in: the page itself or an
// element inside it.
type Scope interface {
	QueryAll(selector string) ([]Element, error)
}

// Element is a lazily re-resolved handle to a node on the page. Handles stay
// usable across back/forward navigations as long as the selector still matches.
type Element interface {
	Scope
	IsVisible() (bool, error)
	IsDisabled() (bool, error)
	Click() error
	Fill(text string) error
	SelectOption(label string) error
	TagName() (string, error)
	Attribute(name string) (string, error)
}

// Page is the single tab the bot drives. Every method may fail with a timeout
// or a detached-target error.
type Page interface {
	Scope
	Goto(url string) error
	WaitVisible(selector string, timeout time.Duration) (Element, error)
	Press(key string) error
	Type(text string) error
	Screenshot(path string) error
	GoBack() error
	URL() string
	Content() (string, error)
	Evaluate(expression string) (any, error)
}

const disabledScript = `el => el.hasAttribute("disabled") ||
	el.classList.contains("disabled") ||
	el.getAttribute("aria-disabled") === "true" ||
	el.getAttribute("aria-disabled") === "disabled"`

type playwrightPage struct {
	page          playwright.Page
	navTimeout    time.Duration
	actionTimeout time.Duration
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(p.navTimeout),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	return wrapLocators(p.page.Locator(selector), p.actionTimeout)
}

func (p *playwrightPage) WaitVisible(selector string, timeout time.Duration) (Element, error) {
	loc := p.page.Locator(selector).First()
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeout),
	})
	if err != nil {
		return nil, err
	}
	return &playwrightElement{loc: loc, timeout: p.actionTimeout}, nil
}

func (p *playwrightPage) Press(key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *playwrightPage) Type(text string) error {
	return p.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{
		Delay: playwright.Float(100),
	})
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     &path,
		FullPage: playwright.Bool(true),
	})
	return err
}

func (p *playwrightPage) GoBack() error {
	_, err := p.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(p.navTimeout),
	})
	return err
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Evaluate(expression string) (any, error) {
	return p.page.Evaluate(expression)
}

type playwrightElement struct {
	loc     playwright.Locator
	timeout time.Duration
}

func wrapLocators(loc playwright.Locator, timeout time.Duration) ([]Element, error) {
	all, err := loc.All()
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(all))
	for _, l := range all {
		elements = append(elements, &playwrightElement{loc: l, timeout: timeout})
	}
	return elements, nil
}

func (e *playwrightElement) QueryAll(selector string) ([]Element, error) {
	return wrapLocators(e.loc.Locator(selector), e.timeout)
}

func (e *playwrightElement) IsVisible() (bool, error) {
	return e.loc.IsVisible()
}

func (e *playwrightElement) IsDisabled() (bool, error) {
	v, err := e.loc.Evaluate(disabledScript, nil)
	if err != nil {
		return false, err
	}
	disabled, _ := v.(bool)
	return disabled, nil
}

func (e *playwrightElement) Click() error {
	return e.loc.Click(playwright.LocatorClickOptions{Timeout: millis(e.timeout)})
}

func (e *playwrightElement) Fill(text string) error {
	return e.loc.Fill(text, playwright.LocatorFillOptions{Timeout: millis(e.timeout)})
}

func (e *playwrightElement) SelectOption(label string) error {
	_, err := e.loc.SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{label},
	}, playwright.LocatorSelectOptionOptions{Timeout: millis(e.timeout)})
	return err
}

func (e *playwrightElement) TagName() (string, error) {
	v, err := e.loc.Evaluate(`el => el.tagName.toLowerCase()`, nil)
	if err != nil {
		return "", err
	}
	tag, _ := v.(string)
	return tag, nil
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	return e.loc.GetAttribute(name)
}
