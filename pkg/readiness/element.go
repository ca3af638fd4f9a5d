package readiness

import (
	"github.com/harun/edupilot/pkg/automation"
)

type elementProxy struct {
	inner automation.Element
	s     *settings
}

func (e *elementProxy) Unwrap() automation.Element { return e.inner }
func (e *elementProxy) Kind() automation.Kind      { return e.inner.Kind() }

func (e *elementProxy) act(op Operation, call func() error) error {
	if err := e.s.await(op, e.inner.WaitFor); err != nil {
		return err
	}
	return call()
}

func (e *elementProxy) Click() error    { return e.act(OpClick, e.inner.Click) }
func (e *elementProxy) Dblclick() error { return e.act(OpDblclick, e.inner.Dblclick) }
func (e *elementProxy) Tap() error      { return e.act(OpTap, e.inner.Tap) }
func (e *elementProxy) Hover() error    { return e.act(OpHover, e.inner.Hover) }
func (e *elementProxy) Focus() error    { return e.act(OpFocus, e.inner.Focus) }
func (e *elementProxy) Check() error    { return e.act(OpCheck, e.inner.Check) }
func (e *elementProxy) Uncheck() error  { return e.act(OpUncheck, e.inner.Uncheck) }

func (e *elementProxy) Fill(value string) error {
	return e.act(OpFill, func() error { return e.inner.Fill(value) })
}

func (e *elementProxy) Type(text string) error {
	return e.act(OpType, func() error { return e.inner.Type(text) })
}

func (e *elementProxy) Press(key string) error {
	return e.act(OpPress, func() error { return e.inner.Press(key) })
}

func (e *elementProxy) SelectOption(values automation.SelectValues) ([]string, error) {
	var selected []string
	err := e.act(OpSelect, func() (err error) {
		selected, err = e.inner.SelectOption(values)
		return err
	})
	return selected, err
}

func (e *elementProxy) SetInputFiles(paths ...string) error {
	return e.act(OpSetInputFiles, func() error { return e.inner.SetInputFiles(paths...) })
}

func (e *elementProxy) DragTo(target automation.Element) error {
	return e.act(OpDrag, func() error { return e.inner.DragTo(unwrapElement(target)) })
}

func (e *elementProxy) Locator(selector string) automation.Element {
	return e.s.element(e.inner.Locator(selector))
}

func (e *elementProxy) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return e.s.element(e.inner.GetByRole(role, opts))
}

func (e *elementProxy) GetByText(text string) automation.Element {
	return e.s.element(e.inner.GetByText(text))
}

func (e *elementProxy) GetByLabel(label string) automation.Element {
	return e.s.element(e.inner.GetByLabel(label))
}

func (e *elementProxy) Filter(opts automation.FilterOptions) automation.Element {
	return e.s.element(e.inner.Filter(opts))
}

func (e *elementProxy) Nth(index int) automation.Element { return e.s.element(e.inner.Nth(index)) }
func (e *elementProxy) First() automation.Element        { return e.s.element(e.inner.First()) }
func (e *elementProxy) Last() automation.Element         { return e.s.element(e.inner.Last()) }

func (e *elementProxy) All() ([]automation.Element, error) {
	all, err := e.inner.All()
	if err != nil {
		return nil, err
	}
	out := make([]automation.Element, len(all))
	for i, el := range all {
		out[i] = e.s.element(el)
	}
	return out, nil
}

func (e *elementProxy) ContentFrame() automation.Frame { return e.s.frame(e.inner.ContentFrame()) }
func (e *elementProxy) Page() automation.Page          { return e.s.page(e.inner.Page()) }

func (e *elementProxy) Count() (int, error)                { return e.inner.Count() }
func (e *elementProxy) TextContent() (string, error)       { return e.inner.TextContent() }
func (e *elementProxy) InnerText() (string, error)         { return e.inner.InnerText() }
func (e *elementProxy) InnerHTML() (string, error)         { return e.inner.InnerHTML() }
func (e *elementProxy) AllTextContents() ([]string, error) { return e.inner.AllTextContents() }
func (e *elementProxy) InputValue() (string, error)        { return e.inner.InputValue() }
func (e *elementProxy) IsVisible() (bool, error)           { return e.inner.IsVisible() }
func (e *elementProxy) IsChecked() (bool, error)           { return e.inner.IsChecked() }
func (e *elementProxy) IsEnabled() (bool, error)           { return e.inner.IsEnabled() }

func (e *elementProxy) BoundingBox() (*automation.Box, error) { return e.inner.BoundingBox() }

func (e *elementProxy) GetAttribute(name string) (string, bool, error) {
	return e.inner.GetAttribute(name)
}

func (e *elementProxy) Evaluate(script string, arg any) (any, error) {
	v, err := e.inner.Evaluate(script, Unwrap(arg))
	if err != nil {
		return nil, err
	}
	return e.s.wrap(v), nil
}

func (e *elementProxy) WaitFor(opts automation.WaitOptions) error { return e.inner.WaitFor(opts) }
