package automationtest

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/harun/edupilot/pkg/automation"
)

var _ automation.Element = (*Element)(nil)

// Element is a scripted element handle. Child handles are created on first
// use and cached, so tests can configure them before the code under test
// reaches them.
type Element struct {
	Name  string
	Rec   *Recorder
	Owner *Page

	// WaitErr is returned by WaitFor.
	WaitErr error
	// Errs maps an operation name ("click", "fill", ...) to its result.
	Errs map[string]error

	CountValue int
	Text       string
	HTML       string
	Value      string
	Attrs      map[string]string
	Visible    bool
	Checked    bool
	Disabled   bool
	Box        *automation.Box
	EvalResult any
	Selected   []string

	mu       sync.Mutex
	children map[string]*Element
	frame    *Frame
}

// NewElement creates a standalone element recording into rec.
func NewElement(rec *Recorder, name string) *Element {
	return &Element{Name: name, Rec: rec}
}

// Child returns (creating if needed) the derived element stored under key.
func (e *Element) Child(key string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.children == nil {
		e.children = make(map[string]*Element)
	}
	c, ok := e.children[key]
	if !ok {
		c = &Element{Name: e.Name + " >> " + key, Rec: e.Rec, Owner: e.Owner}
		e.children[key] = c
	}
	return c
}

func (e *Element) Kind() automation.Kind { return automation.KindElement }

func (e *Element) op(name string) error {
	e.Rec.Record("%s.%s", e.Name, name)
	return e.Errs[name]
}

func (e *Element) Click() error    { return e.op("click") }
func (e *Element) Dblclick() error { return e.op("dblclick") }
func (e *Element) Tap() error      { return e.op("tap") }
func (e *Element) Hover() error    { return e.op("hover") }
func (e *Element) Focus() error    { return e.op("focus") }
func (e *Element) Check() error {
	if err := e.op("check"); err != nil {
		return err
	}
	e.Checked = true
	return nil
}

func (e *Element) Uncheck() error {
	if err := e.op("uncheck"); err != nil {
		return err
	}
	e.Checked = false
	return nil
}

func (e *Element) Fill(value string) error {
	e.Rec.Record("%s.fill %s", e.Name, value)
	if err := e.Errs["fill"]; err != nil {
		return err
	}
	e.Value = value
	return nil
}

func (e *Element) Type(text string) error {
	e.Rec.Record("%s.type %s", e.Name, text)
	if err := e.Errs["type"]; err != nil {
		return err
	}
	e.Value += text
	return nil
}

func (e *Element) Press(key string) error {
	e.Rec.Record("%s.press %s", e.Name, key)
	return e.Errs["press"]
}

func (e *Element) SelectOption(values automation.SelectValues) ([]string, error) {
	e.Rec.Record("%s.select values=%v labels=%v", e.Name, values.Values, values.Labels)
	if err := e.Errs["select"]; err != nil {
		return nil, err
	}
	e.Selected = append(append([]string{}, values.Values...), values.Labels...)
	return e.Selected, nil
}

func (e *Element) SetInputFiles(paths ...string) error {
	e.Rec.Record("%s.set-input-files %v", e.Name, paths)
	return e.Errs["set-input-files"]
}

func (e *Element) DragTo(target automation.Element) error {
	name := fmt.Sprintf("%T", target)
	if t, ok := target.(*Element); ok {
		name = t.Name
	}
	e.Rec.Record("%s.drag %s", e.Name, name)
	return e.Errs["drag"]
}

func (e *Element) Locator(selector string) automation.Element { return e.Child(selector) }

func (e *Element) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return e.Child(RoleKey(role, opts))
}

func (e *Element) GetByText(text string) automation.Element   { return e.Child("text=" + text) }
func (e *Element) GetByLabel(label string) automation.Element { return e.Child("label=" + label) }

func (e *Element) Filter(opts automation.FilterOptions) automation.Element {
	return e.Child(FilterKey(opts))
}

func (e *Element) Nth(index int) automation.Element { return e.Child("nth=" + strconv.Itoa(index)) }
func (e *Element) First() automation.Element        { return e.Nth(0) }
func (e *Element) Last() automation.Element         { return e.Nth(-1) }

func (e *Element) All() ([]automation.Element, error) {
	e.Rec.Record("%s.all", e.Name)
	out := make([]automation.Element, 0, e.CountValue)
	for i := 0; i < e.CountValue; i++ {
		out = append(out, e.Nth(i))
	}
	return out, nil
}

func (e *Element) ContentFrame() automation.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frame == nil {
		e.frame = &Frame{Name: e.Name + " >> frame", Rec: e.Rec, owner: e}
	}
	return e.frame
}

func (e *Element) Page() automation.Page {
	if e.Owner == nil {
		return nil
	}
	return e.Owner
}

func (e *Element) Count() (int, error) {
	e.Rec.Record("%s.count", e.Name)
	return e.CountValue, e.Errs["count"]
}

func (e *Element) TextContent() (string, error) { return e.Text, e.op("text-content") }
func (e *Element) InnerText() (string, error)   { return e.Text, e.op("inner-text") }
func (e *Element) InnerHTML() (string, error)   { return e.HTML, e.op("inner-html") }

func (e *Element) AllTextContents() ([]string, error) {
	e.Rec.Record("%s.all-text-contents", e.Name)
	var out []string
	for i := 0; i < e.CountValue; i++ {
		out = append(out, e.Child("nth="+strconv.Itoa(i)).Text)
	}
	return out, nil
}

func (e *Element) GetAttribute(name string) (string, bool, error) {
	e.Rec.Record("%s.get-attribute %s", e.Name, name)
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) InputValue() (string, error) { return e.Value, e.op("input-value") }
func (e *Element) IsVisible() (bool, error)    { return e.Visible, e.op("is-visible") }
func (e *Element) IsChecked() (bool, error)    { return e.Checked, e.op("is-checked") }
func (e *Element) IsEnabled() (bool, error)    { return !e.Disabled, e.op("is-enabled") }

func (e *Element) BoundingBox() (*automation.Box, error) {
	return e.Box, e.op("bounding-box")
}

func (e *Element) Evaluate(script string, arg any) (any, error) {
	e.Rec.Record("%s.evaluate", e.Name)
	return e.EvalResult, e.Errs["evaluate"]
}

func (e *Element) WaitFor(opts automation.WaitOptions) error {
	e.Rec.Record("%s.wait-for %s %s", e.Name, opts.State, opts.Timeout)
	return e.WaitErr
}

// RoleKey is the child key GetByRole uses.
func RoleKey(role string, opts automation.RoleOptions) string {
	if opts.Name == "" {
		return "role=" + role
	}
	return fmt.Sprintf("role=%s[name=%q]", role, opts.Name)
}

// FilterKey is the child key Filter uses.
func FilterKey(opts automation.FilterOptions) string {
	switch {
	case opts.HasText != "" && opts.HasNotText != "":
		return fmt.Sprintf("filter(has-text=%s,has-not-text=%s)", opts.HasText, opts.HasNotText)
	case opts.HasNotText != "":
		return fmt.Sprintf("filter(has-not-text=%s)", opts.HasNotText)
	default:
		return fmt.Sprintf("filter(has-text=%s)", opts.HasText)
	}
}
