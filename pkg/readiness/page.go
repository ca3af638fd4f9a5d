package readiness

import (
	"time"

	"github.com/harun/edupilot/pkg/automation"
)

type pageProxy struct {
	inner automation.Page
	s     *settings
}

func (p *pageProxy) Unwrap() automation.Page { return p.inner }
func (p *pageProxy) Kind() automation.Kind   { return p.inner.Kind() }

// act waits on the selector the action targets, then runs call.
func (p *pageProxy) act(op Operation, selector string, call func() error) error {
	err := p.s.await(op, func(o automation.WaitOptions) error {
		_, err := p.inner.WaitForSelector(selector, o)
		return err
	})
	if err != nil {
		return err
	}
	return call()
}

func (p *pageProxy) Click(selector string) error {
	return p.act(OpClick, selector, func() error { return p.inner.Click(selector) })
}

func (p *pageProxy) Dblclick(selector string) error {
	return p.act(OpDblclick, selector, func() error { return p.inner.Dblclick(selector) })
}

func (p *pageProxy) Tap(selector string) error {
	return p.act(OpTap, selector, func() error { return p.inner.Tap(selector) })
}

func (p *pageProxy) Hover(selector string) error {
	return p.act(OpHover, selector, func() error { return p.inner.Hover(selector) })
}

func (p *pageProxy) Focus(selector string) error {
	return p.act(OpFocus, selector, func() error { return p.inner.Focus(selector) })
}

func (p *pageProxy) Check(selector string) error {
	return p.act(OpCheck, selector, func() error { return p.inner.Check(selector) })
}

func (p *pageProxy) Uncheck(selector string) error {
	return p.act(OpUncheck, selector, func() error { return p.inner.Uncheck(selector) })
}

func (p *pageProxy) Fill(selector, value string) error {
	return p.act(OpFill, selector, func() error { return p.inner.Fill(selector, value) })
}

func (p *pageProxy) Type(selector, text string) error {
	return p.act(OpType, selector, func() error { return p.inner.Type(selector, text) })
}

func (p *pageProxy) Press(selector, key string) error {
	return p.act(OpPress, selector, func() error { return p.inner.Press(selector, key) })
}

func (p *pageProxy) SelectOption(selector string, values automation.SelectValues) ([]string, error) {
	var selected []string
	err := p.act(OpSelect, selector, func() (err error) {
		selected, err = p.inner.SelectOption(selector, values)
		return err
	})
	return selected, err
}

func (p *pageProxy) SetInputFiles(selector string, paths ...string) error {
	return p.act(OpSetInputFiles, selector, func() error { return p.inner.SetInputFiles(selector, paths...) })
}

func (p *pageProxy) DragAndDrop(source, target string) error {
	return p.act(OpDrag, source, func() error { return p.inner.DragAndDrop(source, target) })
}

func (p *pageProxy) Locator(selector string) automation.Element {
	return p.s.element(p.inner.Locator(selector))
}

func (p *pageProxy) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return p.s.element(p.inner.GetByRole(role, opts))
}

func (p *pageProxy) GetByText(text string) automation.Element {
	return p.s.element(p.inner.GetByText(text))
}

func (p *pageProxy) GetByLabel(label string) automation.Element {
	return p.s.element(p.inner.GetByLabel(label))
}

func (p *pageProxy) FrameLocator(selector string) automation.Frame {
	return p.s.frame(p.inner.FrameLocator(selector))
}

func (p *pageProxy) URL() string              { return p.inner.URL() }
func (p *pageProxy) Title() (string, error)   { return p.inner.Title() }
func (p *pageProxy) Content() (string, error) { return p.inner.Content() }
func (p *pageProxy) Reload() error            { return p.inner.Reload() }
func (p *pageProxy) Close() error             { return p.inner.Close() }

func (p *pageProxy) Goto(url string, opts automation.GotoOptions) error {
	return p.inner.Goto(url, opts)
}

func (p *pageProxy) WaitForURL(pattern string, timeout time.Duration) error {
	return p.inner.WaitForURL(pattern, timeout)
}

func (p *pageProxy) WaitForSelector(selector string, opts automation.WaitOptions) (automation.Element, error) {
	el, err := p.inner.WaitForSelector(selector, opts)
	if err != nil {
		return nil, err
	}
	return p.s.element(el), nil
}

func (p *pageProxy) Evaluate(script string, args ...any) (any, error) {
	raw := make([]any, len(args))
	for i, a := range args {
		raw[i] = Unwrap(a)
	}
	v, err := p.inner.Evaluate(script, raw...)
	if err != nil {
		return nil, err
	}
	return p.s.wrap(v), nil
}

func (p *pageProxy) Screenshot(fullPage bool) ([]byte, error) { return p.inner.Screenshot(fullPage) }

func (p *pageProxy) SetDefaultTimeout(d time.Duration) { p.inner.SetDefaultTimeout(d) }

func (p *pageProxy) SetDefaultNavigationTimeout(d time.Duration) {
	p.inner.SetDefaultNavigationTimeout(d)
}
