package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
	"github.com/harun/edupilot/pkg/automation"
)

var (
	_ automation.Element = (*Locator)(nil)
	_ automation.Frame   = (*Frame)(nil)
)

func pollSleeper() utils.Sleeper {
	return utils.BackoffSleeper(50*time.Millisecond, 500*time.Millisecond, nil)
}

// Locator is a lazy element handle. Every call re-runs its step chain
// against the live document, inside the owning iframe when frame is set.
type Locator struct {
	page  *Page
	frame *Frame
	steps []step
}

func (l *Locator) Kind() automation.Kind { return automation.KindElement }

func (l *Locator) String() string {
	desc := describeSteps(l.steps)
	if l.frame != nil {
		return l.frame.String() + " >> " + desc
	}
	return desc
}

func (l *Locator) with(steps ...step) *Locator {
	next := make([]step, 0, len(l.steps)+len(steps))
	next = append(next, l.steps...)
	next = append(next, steps...)
	return &Locator{page: l.page, frame: l.frame, steps: next}
}

func (l *Locator) Locator(selector string) automation.Element {
	return l.with(parseSelector(selector)...)
}

func (l *Locator) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return l.with(step{Kind: stepRole, Value: role, Name: opts.Name, Exact: opts.Exact})
}

func (l *Locator) GetByText(text string) automation.Element {
	return l.with(step{Kind: stepText, Value: text})
}

func (l *Locator) GetByLabel(label string) automation.Element {
	return l.with(step{Kind: stepLabel, Value: label})
}

func (l *Locator) Filter(opts automation.FilterOptions) automation.Element {
	var steps []step
	if opts.HasText != "" {
		steps = append(steps, step{Kind: stepHasText, Value: opts.HasText})
	}
	if opts.HasNotText != "" {
		steps = append(steps, step{Kind: stepHasNotText, Value: opts.HasNotText})
	}
	return l.with(steps...)
}

func (l *Locator) Nth(index int) automation.Element {
	return l.with(step{Kind: stepNth, Index: index})
}

func (l *Locator) First() automation.Element { return l.Nth(0) }

func (l *Locator) Last() automation.Element { return l.Nth(-1) }

// All snapshots the current matches as positional locators
func (l *Locator) All() ([]automation.Element, error) {
	n, err := l.Count()
	if err != nil {
		return nil, err
	}
	out := make([]automation.Element, n)
	for i := range out {
		out[i] = l.Nth(i)
	}
	return out, nil
}

func (l *Locator) ContentFrame() automation.Frame {
	return &Frame{page: l.page, owner: l}
}

func (l *Locator) Page() automation.Page { return l.page }

func (l *Locator) validate() error {
	for _, s := range l.steps {
		if s.Kind == stepCSS && !IsValidSelector(s.Value) {
			return &BrowserError{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("Invalid selector: %q", s.Value),
			}
		}
	}
	if len(l.steps) == 0 {
		return &BrowserError{Code: ErrCodeValidation, Message: "Empty selector"}
	}
	return nil
}

// root returns the rod page whose document the steps run against
func (l *Locator) root(ctx context.Context) (*rod.Page, error) {
	if l.frame == nil {
		return l.page.rod.Context(ctx), nil
	}
	owner, err := l.frame.owner.resolve(ctx)
	if err != nil {
		return nil, err
	}
	fp, err := owner.Frame()
	if err != nil {
		return nil, newError(ErrCodeElementNotFound, err, "%s is not an iframe", l.frame.owner)
	}
	return fp.Context(ctx), nil
}

func (l *Locator) query(ctx context.Context) (rod.Elements, error) {
	rp, err := l.root(ctx)
	if err != nil {
		return nil, err
	}
	return rp.ElementsByJS(rod.Eval(queryJS, l.steps))
}

// resolve polls until the chain matches at least one element and returns
// the first match bound to ctx
func (l *Locator) resolve(ctx context.Context) (*rod.Element, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}

	var found *rod.Element
	err := utils.Retry(ctx, pollSleeper(), func() (bool, error) {
		elems, err := l.query(ctx)
		if err != nil {
			return stopOnScriptError(err)
		}
		if len(elems) == 0 {
			return false, nil
		}
		found = elems[0]
		return true, nil
	})
	if err != nil {
		var be *BrowserError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, newError(ErrCodeElementNotFound, err, "No element matches %s", l)
	}
	return found.Context(ctx), nil
}

// stopOnScriptError ends a poll on errors thrown by the query itself, such
// as malformed CSS. Anything else, like a navigation tearing down the
// execution context, is retried.
func stopOnScriptError(err error) (bool, error) {
	var evalErr *rod.EvalError
	if errors.As(err, &evalErr) {
		return true, newError(ErrCodeScriptExecution, err, "Query failed")
	}
	var be *BrowserError
	if errors.As(err, &be) && be.Code == ErrCodeValidation {
		return true, err
	}
	return false, nil
}

type probeResult struct {
	count   int
	visible bool
}

func (l *Locator) probe(ctx context.Context) (probeResult, error) {
	rp, err := l.root(ctx)
	if err != nil {
		return probeResult{}, err
	}
	res, err := rp.Eval(probeJS, l.steps)
	if err != nil {
		return probeResult{}, err
	}
	return probeResult{
		count:   res.Value.Get("count").Int(),
		visible: res.Value.Get("visible").Bool(),
	}, nil
}

func (r probeResult) satisfies(state automation.WaitState) bool {
	switch state {
	case automation.StateAttached:
		return r.count > 0
	case automation.StateHidden:
		return r.count == 0 || !r.visible
	case automation.StateDetached:
		return r.count == 0
	default:
		return r.count > 0 && r.visible
	}
}

// WaitFor blocks until the first match reaches opts.State, visible by
// default
func (l *Locator) WaitFor(opts automation.WaitOptions) error {
	if err := l.validate(); err != nil {
		return err
	}
	state := opts.State
	if state == "" {
		state = automation.StateVisible
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = l.page.actionTimeout()
	}
	ctx, cancel := l.page.withTimeout(timeout)
	defer cancel()

	err := utils.Retry(ctx, pollSleeper(), func() (bool, error) {
		res, err := l.probe(ctx)
		if err != nil {
			return stopOnScriptError(err)
		}
		return res.satisfies(state), nil
	})
	if err != nil {
		var be *BrowserError
		if errors.As(err, &be) {
			return err
		}
		return newError(ErrCodeElementNotFound, err, "Timeout %s exceeded waiting for %s to be %s", timeout, l, state)
	}
	return nil
}

// do resolves the first match within the action timeout and runs fn on it
func (l *Locator) do(action string, fn func(el *rod.Element) error) error {
	ctx, cancel := l.page.withTimeout(l.page.actionTimeout())
	defer cancel()

	el, err := l.resolve(ctx)
	if err != nil {
		return err
	}
	if err := fn(el); err != nil {
		var be *BrowserError
		if errors.As(err, &be) {
			return err
		}
		return newError(ErrCodeScriptExecution, err, "Failed to %s %s", action, l)
	}
	return nil
}

func (l *Locator) Click() error {
	return l.do("click", func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (l *Locator) Dblclick() error {
	return l.do("double-click", func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 2)
	})
}

func (l *Locator) Tap() error {
	return l.do("tap", func(el *rod.Element) error { return el.Tap() })
}

func (l *Locator) Hover() error {
	return l.do("hover", func(el *rod.Element) error { return el.Hover() })
}

func (l *Locator) Focus() error {
	return l.do("focus", func(el *rod.Element) error { return el.Focus() })
}

func (l *Locator) Check() error { return l.setChecked("check", true) }

func (l *Locator) Uncheck() error { return l.setChecked("uncheck", false) }

func (l *Locator) setChecked(action string, want bool) error {
	return l.do(action, func(el *rod.Element) error {
		cur, err := elementChecked(el)
		if err != nil || cur == want {
			return err
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return err
		}
		after, err := elementChecked(el)
		if err != nil {
			return err
		}
		if after != want {
			return fmt.Errorf("clicking did not change the checked state")
		}
		return nil
	})
}

func elementChecked(el *rod.Element) (bool, error) {
	res, err := el.Eval(checkedJS)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// Fill replaces the current value
func (l *Locator) Fill(value string) error {
	return l.do("fill", func(el *rod.Element) error {
		if _, err := el.Eval(clearJS); err != nil {
			return err
		}
		if value == "" {
			return nil
		}
		return el.Input(value)
	})
}

// Type sends text key by key, falling back to text insertion for
// characters without a key on the US layout
func (l *Locator) Type(text string) error {
	return l.do("type", func(el *rod.Element) error {
		if err := el.Focus(); err != nil {
			return err
		}
		rp := el.Page()
		for _, r := range text {
			if k, ok := typeableKey(r); ok {
				if err := rp.Keyboard.Type(k); err != nil {
					return err
				}
				continue
			}
			if err := rp.InsertText(string(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Locator) Press(key string) error {
	c, err := parseChord(key)
	if err != nil {
		return &BrowserError{Code: ErrCodeValidation, Message: err.Error(), Err: err}
	}
	return l.do("press "+key+" on", func(el *rod.Element) error {
		if err := el.Focus(); err != nil {
			return err
		}
		kb := el.Page().Keyboard
		for _, m := range c.modifiers {
			if err := kb.Press(m); err != nil {
				return err
			}
		}
		typeErr := kb.Type(c.key)
		for i := len(c.modifiers) - 1; i >= 0; i-- {
			if err := kb.Release(c.modifiers[i]); err != nil && typeErr == nil {
				typeErr = err
			}
		}
		return typeErr
	})
}

// SelectOption selects options by value and by exact label and returns the
// values selected afterwards
func (l *Locator) SelectOption(values automation.SelectValues) ([]string, error) {
	var selected []string
	err := l.do("select options of", func(el *rod.Element) error {
		if len(values.Values) > 0 {
			sels := make([]string, len(values.Values))
			for i, v := range values.Values {
				sels[i] = fmt.Sprintf(`option[value=%q]`, v)
			}
			if err := el.Select(sels, true, rod.SelectorTypeCSSSector); err != nil {
				return err
			}
		}
		if len(values.Labels) > 0 {
			patterns := make([]string, len(values.Labels))
			for i, v := range values.Labels {
				patterns[i] = "^" + regexp.QuoteMeta(strings.TrimSpace(v)) + "$"
			}
			if err := el.Select(patterns, true, rod.SelectorTypeRegex); err != nil {
				return err
			}
		}
		res, err := el.Eval(selectedValuesJS)
		if err != nil {
			return err
		}
		for _, v := range res.Value.Arr() {
			selected = append(selected, v.Str())
		}
		return nil
	})
	return selected, err
}

func (l *Locator) SetInputFiles(paths ...string) error {
	return l.do("set files of", func(el *rod.Element) error { return el.SetFiles(paths) })
}

// DragTo presses the mouse on this element's center and releases it over
// the target's
func (l *Locator) DragTo(target automation.Element) error {
	dst, ok := target.(*Locator)
	if !ok {
		return &BrowserError{Code: ErrCodeValidation, Message: fmt.Sprintf("Unsupported drag target %T", target)}
	}
	return l.do("drag", func(src *rod.Element) error {
		from, err := centerOf(src)
		if err != nil {
			return err
		}
		ctx := src.GetContext()
		tgt, err := dst.resolve(ctx)
		if err != nil {
			return err
		}
		to, err := centerOf(tgt)
		if err != nil {
			return err
		}
		mouse := src.Page().Mouse
		if err := mouse.MoveTo(from); err != nil {
			return err
		}
		if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
			return err
		}
		if err := mouse.MoveLinear(to, 5); err != nil {
			return err
		}
		return mouse.Up(proto.InputMouseButtonLeft, 1)
	})
}

func centerOf(el *rod.Element) (proto.Point, error) {
	if err := el.ScrollIntoView(); err != nil {
		return proto.Point{}, err
	}
	shape, err := el.Shape()
	if err != nil {
		return proto.Point{}, err
	}
	pt := shape.OnePointInside()
	if pt == nil {
		return proto.Point{}, fmt.Errorf("element has no visible area")
	}
	return *pt, nil
}

// Count returns the current number of matches without waiting
func (l *Locator) Count() (int, error) {
	if err := l.validate(); err != nil {
		return 0, err
	}
	ctx, cancel := l.page.withTimeout(l.page.actionTimeout())
	defer cancel()

	res, err := l.probe(ctx)
	if err != nil {
		return 0, newError(ErrCodeScriptExecution, err, "Failed to count %s", l)
	}
	return res.count, nil
}

func (l *Locator) evalString(action, js string) (string, error) {
	var out string
	err := l.do(action, func(el *rod.Element) error {
		res, err := el.Eval(js)
		if err != nil {
			return err
		}
		out = res.Value.Str()
		return nil
	})
	return out, err
}

func (l *Locator) TextContent() (string, error) {
	return l.evalString("read text of", textContentJS)
}

func (l *Locator) InnerText() (string, error) {
	var out string
	err := l.do("read text of", func(el *rod.Element) error {
		text, err := el.Text()
		out = text
		return err
	})
	return out, err
}

func (l *Locator) InnerHTML() (string, error) {
	return l.evalString("read HTML of", innerHTMLJS)
}

func (l *Locator) InputValue() (string, error) {
	return l.evalString("read value of", inputValueJS)
}

// AllTextContents returns the text of every current match without waiting
func (l *Locator) AllTextContents() ([]string, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := l.page.withTimeout(l.page.actionTimeout())
	defer cancel()

	elems, err := l.query(ctx)
	if err != nil {
		return nil, newError(ErrCodeScriptExecution, err, "Failed to query %s", l)
	}
	out := make([]string, 0, len(elems))
	for _, el := range elems {
		res, err := el.Eval(textContentJS)
		if err != nil {
			return nil, newError(ErrCodeScriptExecution, err, "Failed to read text of %s", l)
		}
		out = append(out, res.Value.Str())
	}
	return out, nil
}

func (l *Locator) GetAttribute(name string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := l.do("read attribute of", func(el *rod.Element) error {
		attr, err := el.Attribute(name)
		if err != nil {
			return err
		}
		if attr != nil {
			value, found = *attr, true
		}
		return nil
	})
	return value, found, err
}

// IsVisible reports the current visibility without waiting
func (l *Locator) IsVisible() (bool, error) {
	if err := l.validate(); err != nil {
		return false, err
	}
	ctx, cancel := l.page.withTimeout(l.page.actionTimeout())
	defer cancel()

	res, err := l.probe(ctx)
	if err != nil {
		return false, newError(ErrCodeScriptExecution, err, "Failed to probe %s", l)
	}
	return res.count > 0 && res.visible, nil
}

func (l *Locator) IsChecked() (bool, error) {
	var checked bool
	err := l.do("read checked state of", func(el *rod.Element) error {
		var err error
		checked, err = elementChecked(el)
		return err
	})
	return checked, err
}

func (l *Locator) IsEnabled() (bool, error) {
	var enabled bool
	err := l.do("read enabled state of", func(el *rod.Element) error {
		disabled, err := el.Disabled()
		enabled = !disabled
		return err
	})
	return enabled, err
}

// BoundingBox returns nil for elements that are not rendered
func (l *Locator) BoundingBox() (*automation.Box, error) {
	var box *automation.Box
	err := l.do("measure", func(el *rod.Element) error {
		shape, err := el.Shape()
		if err != nil {
			return err
		}
		if len(shape.Quads) == 0 {
			return nil
		}
		r := shape.Box()
		box = &automation.Box{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
		return nil
	})
	return box, err
}

// Evaluate calls script with the element and arg, e.g. "(el, arg) => ...".
// A bare expression is evaluated with this bound to the element.
func (l *Locator) Evaluate(script string, arg any) (any, error) {
	if _, ok := arg.(automation.Handle); ok {
		return nil, &BrowserError{Code: ErrCodeValidation, Message: "Handles cannot be passed as script arguments"}
	}
	js := fmt.Sprintf(`function(arg) { return (%s)(this, arg); }`, asFunction(script))
	var out any
	err := l.do("evaluate on", func(el *rod.Element) error {
		res, err := el.Eval(js, arg)
		if err != nil {
			return err
		}
		out = res.Value.Val()
		return nil
	})
	return out, err
}

// asFunction turns a bare expression into a function so it can be applied
func asFunction(script string) string {
	s := strings.TrimSpace(script)
	if strings.HasPrefix(s, "function") || strings.HasPrefix(s, "async") || strings.Contains(s, "=>") {
		return s
	}
	return fmt.Sprintf("function() { return (%s); }", s)
}

// Frame addresses the document of the iframe its owner locator resolves to
type Frame struct {
	page  *Page
	owner *Locator
}

func (f *Frame) Kind() automation.Kind { return automation.KindFrame }

func (f *Frame) String() string { return f.owner.String() + " >> frame" }

func (f *Frame) locator(steps ...step) *Locator {
	return &Locator{page: f.page, frame: f, steps: steps}
}

func (f *Frame) Locator(selector string) automation.Element {
	return f.locator(parseSelector(selector)...)
}

func (f *Frame) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return f.locator(step{Kind: stepRole, Value: role, Name: opts.Name, Exact: opts.Exact})
}

func (f *Frame) GetByText(text string) automation.Element {
	return f.locator(step{Kind: stepText, Value: text})
}

func (f *Frame) GetByLabel(label string) automation.Element {
	return f.locator(step{Kind: stepLabel, Value: label})
}

func (f *Frame) FrameLocator(selector string) automation.Frame {
	return &Frame{page: f.page, owner: f.locator(parseSelector(selector)...)}
}

func (f *Frame) Owner() automation.Element { return f.owner }
