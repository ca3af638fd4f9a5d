package readiness

import (
	"fmt"
	"strings"
	"time"

	"github.com/harun/edupilot/pkg/automation"
)

// Assertion checks a condition on a page or element handle. It accepts
// wrapped and raw handles alike, dispatching on Kind.
type Assertion struct {
	handle  automation.Handle
	timeout time.Duration
}

// Expect starts an assertion on h.
func Expect(h automation.Handle) *Assertion {
	return &Assertion{handle: h}
}

// WithTimeout bounds waiting assertions.
func (a *Assertion) WithTimeout(d time.Duration) *Assertion {
	a.timeout = d
	return a
}

// ToBeVisible waits until the element is visible.
func (a *Assertion) ToBeVisible() error {
	if a.handle == nil || a.handle.Kind() != automation.KindElement {
		return fmt.Errorf("expect: visibility needs an element, got %s", automation.KindOf(a.handle))
	}
	el, ok := a.handle.(automation.Element)
	if !ok {
		return fmt.Errorf("expect: %T reports element kind but is not an element", a.handle)
	}
	return el.WaitFor(automation.WaitOptions{State: automation.StateVisible, Timeout: a.timeout})
}

// ToHaveCount checks the number of elements a locator matches.
func (a *Assertion) ToHaveCount(n int) error {
	el, ok := a.handle.(automation.Element)
	if !ok || a.handle.Kind() != automation.KindElement {
		return fmt.Errorf("expect: count needs an element, got %s", automation.KindOf(a.handle))
	}
	got, err := el.Count()
	if err != nil {
		return err
	}
	if got != n {
		return fmt.Errorf("expect: want %d elements, got %d", n, got)
	}
	return nil
}

// ToHaveURL waits until the page URL matches pattern (glob with * and **,
// or a plain substring when it has no wildcard).
func (a *Assertion) ToHaveURL(pattern string) error {
	if a.handle == nil || a.handle.Kind() != automation.KindPage {
		return fmt.Errorf("expect: url needs a page, got %s", automation.KindOf(a.handle))
	}
	p, ok := a.handle.(automation.Page)
	if !ok {
		return fmt.Errorf("expect: %T reports page kind but is not a page", a.handle)
	}
	if !strings.Contains(pattern, "*") {
		if strings.Contains(p.URL(), pattern) {
			return nil
		}
		return fmt.Errorf("expect: url %q does not contain %q", p.URL(), pattern)
	}
	return p.WaitForURL(pattern, a.timeout)
}
