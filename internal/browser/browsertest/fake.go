// Package browsertest provides an in-memory page for exercising flows that
// drive a browser.Page without launching a browser.
package browsertest

import (
	"errors"
	"fmt"
	"time"

	"github.com/maltedev/outreach-bot/internal/browser"
)

var (
	ErrTimeout   = errors.New("timeout waiting for selector")
	ErrNoHistory = errors.New("no history entry to go back to")
)

// Element is a scripted node. Zero value is an invisible, enabled div.
type Element struct {
	Name     string
	Visible  bool
	Disabled bool
	Tag      string
	Attrs    map[string]string
	Children map[string][]*Element

	ClickErr  error
	FillErr   error
	SelectErr error
	OnClick   func()

	Clicks   int
	Filled   []string
	Selected []string
}

// Visible returns a visible element with the given name.
func Visible(name string) *Element {
	return &Element{Name: name, Visible: true}
}

// Hidden returns an element that exists but is not visible.
func Hidden(name string) *Element {
	return &Element{Name: name}
}

func (e *Element) QueryAll(selector string) ([]browser.Element, error) {
	return toElements(e.Children[selector]), nil
}

func (e *Element) IsVisible() (bool, error) { return e.Visible, nil }

func (e *Element) IsDisabled() (bool, error) { return e.Disabled, nil }

func (e *Element) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Fill(text string) error {
	if e.FillErr != nil {
		return e.FillErr
	}
	e.Filled = append(e.Filled, text)
	return nil
}

func (e *Element) SelectOption(label string) error {
	if e.SelectErr != nil {
		return e.SelectErr
	}
	e.Selected = append(e.Selected, label)
	return nil
}

func (e *Element) TagName() (string, error) {
	if e.Tag == "" {
		return "div", nil
	}
	return e.Tag, nil
}

func (e *Element) Attribute(name string) (string, error) {
	return e.Attrs[name], nil
}

func toElements(in []*Element) []browser.Element {
	out := make([]browser.Element, 0, len(in))
	for _, e := range in {
		out = append(out, e)
	}
	return out
}

// View is what the page renders at one URL.
type View struct {
	Elements map[string][]*Element
	HTML     string
}

// Page is a fake tab with per-URL views and a navigation history.
type Page struct {
	url     string
	history []string
	views   map[string]*View

	QueryErrs  map[string]error
	GotoErr    func(url string) error
	ShotErr    error
	TypeErr    error
	OnQuery    func(selector string) ([]*Element, bool)
	OnEvaluate func(expression string) (any, error)

	Gotos   []string
	Pressed []string
	Typed   []string
	Shots   []string
	Evals   []string
	Backs   int
}

func NewPage(url string) *Page {
	return &Page{
		url:       url,
		views:     make(map[string]*View),
		QueryErrs: make(map[string]error),
	}
}

// View returns the view rendered at url, creating it if needed.
func (p *Page) View(url string) *View {
	v, ok := p.views[url]
	if !ok {
		v = &View{Elements: make(map[string][]*Element)}
		p.views[url] = v
	}
	return v
}

// Add registers elements matched by selector at url.
func (p *Page) Add(url, selector string, elems ...*Element) {
	v := p.View(url)
	v.Elements[selector] = append(v.Elements[selector], elems...)
}

// SetHTML sets the document returned by Content at url.
func (p *Page) SetHTML(url, html string) {
	p.View(url).HTML = html
}

// Navigate moves to url and records the current one in history, as a link
// click would.
func (p *Page) Navigate(url string) {
	p.history = append(p.history, p.url)
	p.url = url
}

func (p *Page) Goto(url string) error {
	p.Gotos = append(p.Gotos, url)
	if p.GotoErr != nil {
		if err := p.GotoErr(url); err != nil {
			return err
		}
	}
	p.Navigate(url)
	return nil
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	if err := p.QueryErrs[selector]; err != nil {
		return nil, err
	}
	if p.OnQuery != nil {
		if elems, ok := p.OnQuery(selector); ok {
			return toElements(elems), nil
		}
	}
	v, ok := p.views[p.url]
	if !ok {
		return nil, nil
	}
	return toElements(v.Elements[selector]), nil
}

func (p *Page) WaitVisible(selector string, timeout time.Duration) (browser.Element, error) {
	elems, err := p.QueryAll(selector)
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if ok, _ := e.IsVisible(); ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, selector, timeout)
}

func (p *Page) Press(key string) error {
	p.Pressed = append(p.Pressed, key)
	return nil
}

func (p *Page) Type(text string) error {
	if p.TypeErr != nil {
		return p.TypeErr
	}
	p.Typed = append(p.Typed, text)
	return nil
}

func (p *Page) Screenshot(path string) error {
	if p.ShotErr != nil {
		return p.ShotErr
	}
	p.Shots = append(p.Shots, path)
	return nil
}

func (p *Page) GoBack() error {
	if len(p.history) == 0 {
		return ErrNoHistory
	}
	p.Backs++
	p.url = p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	return nil
}

func (p *Page) URL() string { return p.url }

func (p *Page) Content() (string, error) {
	if v, ok := p.views[p.url]; ok {
		return v.HTML, nil
	}
	return "", nil
}

func (p *Page) Evaluate(expression string) (any, error) {
	p.Evals = append(p.Evals, expression)
	if p.OnEvaluate != nil {
		return p.OnEvaluate(expression)
	}
	return nil, nil
}
