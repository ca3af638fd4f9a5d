package readiness

import "github.com/harun/edupilot/pkg/automation"

type frameProxy struct {
	inner automation.Frame
	s     *settings
}

func (f *frameProxy) Unwrap() automation.Frame { return f.inner }
func (f *frameProxy) Kind() automation.Kind    { return f.inner.Kind() }

func (f *frameProxy) Locator(selector string) automation.Element {
	return f.s.element(f.inner.Locator(selector))
}

func (f *frameProxy) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return f.s.element(f.inner.GetByRole(role, opts))
}

func (f *frameProxy) GetByText(text string) automation.Element {
	return f.s.element(f.inner.GetByText(text))
}

func (f *frameProxy) GetByLabel(label string) automation.Element {
	return f.s.element(f.inner.GetByLabel(label))
}

func (f *frameProxy) FrameLocator(selector string) automation.Frame {
	return f.s.frame(f.inner.FrameLocator(selector))
}

func (f *frameProxy) Owner() automation.Element { return f.s.element(f.inner.Owner()) }
