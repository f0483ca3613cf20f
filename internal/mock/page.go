// Package mock provides hand-written fakes of the browser surface for tests.
package mock

import (
	"errors"
	"time"

	"github.com/ysmood/gson"

	"wxdl/internal/browser"
)

var _ browser.Session = (*Page)(nil)

// Page is a browser.Session whose behaviour is set per test through its Fn fields.
// A nil Fn falls back to a harmless default: success, empty results, nothing found.
type Page struct {
	NavigateFn        func(url string, timeout time.Duration) error
	URLFn             func() string
	EvalFn            func(js string, args ...any) (gson.JSON, error)
	HTMLFn            func() (string, error)
	HasFn             func(selector string) (browser.Element, bool, error)
	HasTextFn         func(selector, pattern string) (browser.Element, bool, error)
	ElementsFn        func(selector string) ([]browser.Element, error)
	WaitElementFn     func(selector string, timeout time.Duration) error
	WaitElementTextFn func(selector, pattern string, timeout time.Duration) error
	PDFFn             func() ([]byte, error)
	CloseFn           func() error

	CloseCalls int
}

func (p *Page) Navigate(url string, timeout time.Duration) error {
	if p.NavigateFn == nil {
		return nil
	}
	return p.NavigateFn(url, timeout)
}

func (p *Page) URL() string {
	if p.URLFn == nil {
		return ""
	}
	return p.URLFn()
}

func (p *Page) Eval(js string, args ...any) (gson.JSON, error) {
	if p.EvalFn == nil {
		return gson.New(nil), nil
	}
	return p.EvalFn(js, args...)
}

func (p *Page) HTML() (string, error) {
	if p.HTMLFn == nil {
		return "", nil
	}
	return p.HTMLFn()
}

func (p *Page) Has(selector string) (browser.Element, bool, error) {
	if p.HasFn == nil {
		return nil, false, nil
	}
	return p.HasFn(selector)
}

func (p *Page) HasText(selector, pattern string) (browser.Element, bool, error) {
	if p.HasTextFn == nil {
		return nil, false, nil
	}
	return p.HasTextFn(selector, pattern)
}

func (p *Page) Elements(selector string) ([]browser.Element, error) {
	if p.ElementsFn == nil {
		return nil, nil
	}
	return p.ElementsFn(selector)
}

func (p *Page) WaitElement(selector string, timeout time.Duration) error {
	if p.WaitElementFn == nil {
		return nil
	}
	return p.WaitElementFn(selector, timeout)
}

func (p *Page) WaitElementText(selector, pattern string, timeout time.Duration) error {
	if p.WaitElementTextFn == nil {
		return &browser.SelectorTimeoutError{Selector: selector, Timeout: timeout, Err: errors.New("not found")}
	}
	return p.WaitElementTextFn(selector, pattern, timeout)
}

func (p *Page) PDF() ([]byte, error) {
	if p.PDFFn == nil {
		return nil, errors.New("pdf not supported")
	}
	return p.PDFFn()
}

func (p *Page) Close() error {
	p.CloseCalls++
	if p.CloseFn == nil {
		return nil
	}
	return p.CloseFn()
}

// Element is a static browser.Element.
type Element struct {
	TextValue string
	TextErr   error
	Attrs     map[string]string
	Inner     string
	Children  map[string]*Element
	ClickFn   func() error
}

var _ browser.Element = (*Element)(nil)

func (e *Element) Text() (string, error) {
	return e.TextValue, e.TextErr
}

func (e *Element) Attribute(name string) (string, bool, error) {
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) InnerHTML() (string, error) {
	return e.Inner, nil
}

func (e *Element) Click() error {
	if e.ClickFn == nil {
		return nil
	}
	return e.ClickFn()
}

func (e *Element) Has(selector string) (browser.Element, bool, error) {
	child, ok := e.Children[selector]
	if !ok {
		return nil, false, nil
	}
	return child, true, nil
}

// Elements converts static elements to the browser.Element slice returned by Page.Elements.
func Elements(els ...*Element) []browser.Element {
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out
}

// Selectors answers Has lookups from a fixed selector table.
func Selectors(table map[string]*Element) func(string) (browser.Element, bool, error) {
	return func(selector string) (browser.Element, bool, error) {
		el, ok := table[selector]
		if !ok {
			return nil, false, nil
		}
		return el, true, nil
	}
}
