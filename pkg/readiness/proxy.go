package readiness

import (
	"time"

	"github.com/harun/edupilot/pkg/automation"
)

// Observer is told about every readiness wait a proxy performs.
type Observer interface {
	ObserveWait(op Operation, state automation.WaitState, elapsed time.Duration, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(op Operation, state automation.WaitState, elapsed time.Duration, err error)

func (f ObserverFunc) ObserveWait(op Operation, state automation.WaitState, elapsed time.Duration, err error) {
	f(op, state, elapsed, err)
}

// Option configures a proxy tree.
type Option func(*settings)

// WithObserver attaches an observer shared by the proxy and all its children.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observer = o
	}
}

// settings is shared by reference across one proxy tree.
type settings struct {
	timeout  time.Duration
	observer Observer
}

func newSettings(timeout time.Duration, opts []Option) *settings {
	s := &settings{timeout: timeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// await runs wait with the state registered for op. Unregistered operations
// return immediately.
func (s *settings) await(op Operation, wait func(automation.WaitOptions) error) error {
	state, ok := ActionStates[op]
	if !ok {
		return nil
	}
	start := time.Now()
	err := wait(automation.WaitOptions{State: state, Timeout: s.timeout})
	if s.observer != nil {
		s.observer.ObserveWait(op, state, time.Since(start), err)
	}
	return err
}

// Page is a readiness-wrapped page.
type Page interface {
	automation.Page
	Unwrap() automation.Page
}

// Element is a readiness-wrapped element.
type Element interface {
	automation.Element
	Unwrap() automation.Element
}

// Frame is a readiness-wrapped frame.
type Frame interface {
	automation.Frame
	Unwrap() automation.Frame
}

// WrapPage wraps p. Wrapping an already wrapped page returns it unchanged.
func WrapPage(p automation.Page, timeout time.Duration, opts ...Option) Page {
	return newSettings(timeout, opts).page(p)
}

// WrapElement wraps e.
func WrapElement(e automation.Element, timeout time.Duration, opts ...Option) Element {
	return newSettings(timeout, opts).element(e)
}

// WrapFrame wraps f.
func WrapFrame(f automation.Frame, timeout time.Duration, opts ...Option) Frame {
	return newSettings(timeout, opts).frame(f)
}

// Wrap dispatches on the handle kind. Opaque values are returned unchanged.
func Wrap(v any, timeout time.Duration, opts ...Option) any {
	return newSettings(timeout, opts).wrap(v)
}

func (s *settings) wrap(v any) any {
	switch automation.KindOf(v) {
	case automation.KindPage:
		if p, ok := v.(automation.Page); ok {
			return s.page(p)
		}
	case automation.KindElement:
		if e, ok := v.(automation.Element); ok {
			return s.element(e)
		}
	case automation.KindFrame:
		if f, ok := v.(automation.Frame); ok {
			return s.frame(f)
		}
	}
	return v
}

func (s *settings) page(p automation.Page) Page {
	if p == nil {
		return nil
	}
	if w, ok := p.(Page); ok {
		return w
	}
	return &pageProxy{inner: p, s: s}
}

func (s *settings) element(e automation.Element) Element {
	if e == nil {
		return nil
	}
	if w, ok := e.(Element); ok {
		return w
	}
	return &elementProxy{inner: e, s: s}
}

func (s *settings) frame(f automation.Frame) Frame {
	if f == nil {
		return nil
	}
	if w, ok := f.(Frame); ok {
		return w
	}
	return &frameProxy{inner: f, s: s}
}

// Unwrap returns the raw handle behind a proxy, or v itself.
func Unwrap(v any) any {
	switch w := v.(type) {
	case Page:
		return w.Unwrap()
	case Element:
		return w.Unwrap()
	case Frame:
		return w.Unwrap()
	}
	return v
}

func unwrapElement(e automation.Element) automation.Element {
	if w, ok := e.(Element); ok {
		return w.Unwrap()
	}
	return e
}
