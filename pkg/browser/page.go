package browser

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
	"github.com/harun/edupilot/pkg/automation"
)

var _ automation.Page = (*Page)(nil)

// networkIdleQuiet is how long no request may be in flight before the page
// counts as network idle
const networkIdleQuiet = 500 * time.Millisecond

const localStorageJS = `() => {
	const origin = window.location.origin;
	const items = [];
	try {
		for (let i = 0; i < window.localStorage.length; i++) {
			const name = window.localStorage.key(i);
			items.push({name: name, value: window.localStorage.getItem(name)});
		}
	} catch (e) {}
	return {origin: origin, items: items};
}`

// Page is a tab driven through rod
type Page struct {
	context *Context
	rod     *rod.Page

	mu                sync.Mutex
	defaultTimeout    time.Duration
	navigationTimeout time.Duration
}

func newPage(c *Context, rp *rod.Page) *Page {
	cfg := c.browser.engine.config
	return &Page{
		context:           c,
		rod:               rp,
		defaultTimeout:    cfg.ActionTimeout,
		navigationTimeout: cfg.NavigationTimeout,
	}
}

func (p *Page) Kind() automation.Kind { return automation.KindPage }

func (p *Page) actionTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defaultTimeout
}

func (p *Page) navTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.navigationTimeout
}

func (p *Page) withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(p.rod.GetContext(), d)
}

// SetDefaultTimeout sets the bound for actions and element waits
func (p *Page) SetDefaultTimeout(d time.Duration) {
	p.mu.Lock()
	p.defaultTimeout = d
	p.mu.Unlock()
}

// SetDefaultNavigationTimeout sets the bound for Goto, Reload and WaitForURL
func (p *Page) SetDefaultNavigationTimeout(d time.Duration) {
	p.mu.Lock()
	p.navigationTimeout = d
	p.mu.Unlock()
}

func (p *Page) locator(steps ...step) *Locator {
	return &Locator{page: p, steps: steps}
}

func (p *Page) Locator(selector string) automation.Element {
	return p.locator(parseSelector(selector)...)
}

func (p *Page) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return p.locator(step{Kind: stepRole, Value: role, Name: opts.Name, Exact: opts.Exact})
}

func (p *Page) GetByText(text string) automation.Element {
	return p.locator(step{Kind: stepText, Value: text})
}

func (p *Page) GetByLabel(label string) automation.Element {
	return p.locator(step{Kind: stepLabel, Value: label})
}

func (p *Page) FrameLocator(selector string) automation.Frame {
	return &Frame{page: p, owner: p.locator(parseSelector(selector)...)}
}

// URL returns the current address, or "" when the target is gone
func (p *Page) URL() string {
	info, err := p.rod.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *Page) Title() (string, error) {
	info, err := p.rod.Info()
	if err != nil {
		return "", newError(ErrCodeBrowserCrash, err, "Failed to read page info")
	}
	return info.Title, nil
}

func (p *Page) Content() (string, error) {
	ctx, cancel := p.withTimeout(p.actionTimeout())
	defer cancel()

	html, err := p.rod.Context(ctx).HTML()
	if err != nil {
		return "", newError(ErrCodeScriptExecution, err, "Failed to read page content")
	}
	return html, nil
}

// Goto navigates and waits for the requested load state, "load" by default
func (p *Page) Goto(url string, opts automation.GotoOptions) error {
	if err := ValidateGotoOptions(opts); err != nil {
		return err
	}
	if err := p.context.browser.engine.validator.ValidateURL(url); err != nil {
		return err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = p.navTimeout()
	}
	ctx, cancel := p.withTimeout(timeout)
	defer cancel()
	rp := p.rod.Context(ctx)

	logger := p.context.browser.engine.logger
	logger.Debug().Str("url", url).Str("waitUntil", string(opts.WaitUntil)).Msg("Navigating")

	var err error
	switch opts.WaitUntil {
	case automation.LoadStateDOMContentLoaded:
		wait := rp.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
		if err = rp.Navigate(url); err == nil {
			wait()
			err = ctx.Err()
		}
	case automation.LoadStateNetworkIdle:
		wait := rp.WaitRequestIdle(networkIdleQuiet, nil, nil, nil)
		if err = rp.Navigate(url); err == nil {
			wait()
			if err = ctx.Err(); err == nil {
				err = rp.WaitLoad()
			}
		}
	default:
		if err = rp.Navigate(url); err == nil {
			err = rp.WaitLoad()
		}
	}
	if err != nil {
		return newError(ErrCodeNavigation, err, "Failed to navigate to %s", url)
	}
	return nil
}

func (p *Page) Reload() error {
	ctx, cancel := p.withTimeout(p.navTimeout())
	defer cancel()
	rp := p.rod.Context(ctx)

	if err := rp.Reload(); err != nil {
		return newError(ErrCodeNavigation, err, "Failed to reload")
	}
	if err := rp.WaitLoad(); err != nil {
		return newError(ErrCodeNavigation, err, "Failed to reload")
	}
	return nil
}

// WaitForURL polls the address until it matches pattern. Patterns without
// "*" must match exactly.
func (p *Page) WaitForURL(pattern string, timeout time.Duration) error {
	if _, err := matchURL(pattern, ""); err != nil {
		return &BrowserError{Code: ErrCodeValidation, Message: "Invalid URL pattern: " + pattern, Err: err}
	}
	if timeout <= 0 {
		timeout = p.navTimeout()
	}
	ctx, cancel := p.withTimeout(timeout)
	defer cancel()

	err := utils.Retry(ctx, pollSleeper(), func() (bool, error) {
		ok, _ := matchURL(pattern, p.URL())
		return ok, nil
	})
	if err != nil {
		return newError(ErrCodeNavigation, err, "Timeout %s exceeded waiting for URL %s (at %s)", timeout, pattern, p.URL())
	}
	return nil
}

// WaitForSelector waits for selector to reach opts.State and returns a
// locator for it
func (p *Page) WaitForSelector(selector string, opts automation.WaitOptions) (automation.Element, error) {
	l := p.locator(parseSelector(selector)...)
	if err := l.WaitFor(opts); err != nil {
		return nil, err
	}
	return l, nil
}

// Evaluate runs script in the page. Functions receive args; a bare
// expression is evaluated as is.
func (p *Page) Evaluate(script string, args ...any) (any, error) {
	for _, a := range args {
		if _, ok := a.(automation.Handle); ok {
			return nil, &BrowserError{Code: ErrCodeValidation, Message: "Handles cannot be passed as script arguments"}
		}
	}

	ctx, cancel := p.withTimeout(p.actionTimeout())
	defer cancel()

	res, err := p.rod.Context(ctx).Eval(asFunction(script), args...)
	if err != nil {
		return nil, newError(ErrCodeScriptExecution, err, "Script failed")
	}
	return res.Value.Val(), nil
}

func (p *Page) Screenshot(fullPage bool) ([]byte, error) {
	ctx, cancel := p.withTimeout(p.actionTimeout())
	defer cancel()

	data, err := p.rod.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, newError(ErrCodeScriptExecution, err, "Failed to capture screenshot")
	}
	return data, nil
}

func (p *Page) Close() error {
	p.context.untrack(p)
	if err := p.rod.Close(); err != nil {
		return newError(ErrCodeBrowserCrash, err, "Failed to close page")
	}
	return nil
}

// localStorage dumps the local storage of the page's current origin. Opaque
// origins such as about:blank yield nil.
func (p *Page) localStorage() (*OriginState, error) {
	ctx, cancel := p.withTimeout(p.actionTimeout())
	defer cancel()

	res, err := p.rod.Context(ctx).Eval(localStorageJS)
	if err != nil {
		return nil, err
	}
	origin := res.Value.Get("origin").Str()
	if origin == "" || origin == "null" {
		return nil, nil
	}

	state := &OriginState{Origin: origin, LocalStorage: []NameValue{}}
	for _, item := range res.Value.Get("items").Arr() {
		state.LocalStorage = append(state.LocalStorage, NameValue{
			Name:  item.Get("name").Str(),
			Value: item.Get("value").Str(),
		})
	}
	return state, nil
}

func (p *Page) Click(selector string) error { return p.locator(parseSelector(selector)...).Click() }

func (p *Page) Dblclick(selector string) error {
	return p.locator(parseSelector(selector)...).Dblclick()
}

func (p *Page) Tap(selector string) error { return p.locator(parseSelector(selector)...).Tap() }

func (p *Page) Hover(selector string) error { return p.locator(parseSelector(selector)...).Hover() }

func (p *Page) Focus(selector string) error { return p.locator(parseSelector(selector)...).Focus() }

func (p *Page) Check(selector string) error { return p.locator(parseSelector(selector)...).Check() }

func (p *Page) Uncheck(selector string) error {
	return p.locator(parseSelector(selector)...).Uncheck()
}

func (p *Page) Fill(selector, value string) error {
	return p.locator(parseSelector(selector)...).Fill(value)
}

func (p *Page) Type(selector, text string) error {
	return p.locator(parseSelector(selector)...).Type(text)
}

func (p *Page) Press(selector, key string) error {
	return p.locator(parseSelector(selector)...).Press(key)
}

func (p *Page) SelectOption(selector string, values automation.SelectValues) ([]string, error) {
	return p.locator(parseSelector(selector)...).SelectOption(values)
}

func (p *Page) SetInputFiles(selector string, paths ...string) error {
	return p.locator(parseSelector(selector)...).SetInputFiles(paths...)
}

func (p *Page) DragAndDrop(source, target string) error {
	return p.locator(parseSelector(source)...).DragTo(p.locator(parseSelector(target)...))
}
