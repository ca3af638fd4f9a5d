package automationtest

import (
	"sync"
	"time"

	"github.com/harun/edupilot/pkg/automation"
)

var (
	_ automation.Page  = (*Page)(nil)
	_ automation.Frame = (*Frame)(nil)
)

// Page is a scripted page. Elements are keyed by the selector strings the
// code under test uses ("text=Známky", RoleKey("button", ...), ...).
type Page struct {
	Name string
	Rec  *Recorder

	CurrentURL string
	HTML       string
	TitleText  string

	// OnGoto replaces the default navigation, which just sets CurrentURL.
	OnGoto        func(p *Page, url string) error
	WaitForURLErr error
	EvalResult    any
	EvalErr       error
	ScreenshotErr error
	CloseErr      error

	DefaultTimeout    time.Duration
	NavigationTimeout time.Duration
	Closed            int

	mu       sync.Mutex
	elements map[string]*Element
	frames   map[string]*Frame
}

// NewPage creates a page recording into rec.
func NewPage(rec *Recorder, name string) *Page {
	return &Page{Name: name, Rec: rec, CurrentURL: "about:blank"}
}

// Element returns (creating if needed) the element registered under key.
func (p *Page) Element(key string) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.elements == nil {
		p.elements = make(map[string]*Element)
	}
	e, ok := p.elements[key]
	if !ok {
		e = &Element{Name: key, Rec: p.Rec, Owner: p}
		p.elements[key] = e
	}
	return e
}

func (p *Page) frame(key string) *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames == nil {
		p.frames = make(map[string]*Frame)
	}
	f, ok := p.frames[key]
	if !ok {
		f = &Frame{Name: key, Rec: p.Rec, owner: &Element{Name: key, Rec: p.Rec, Owner: p}, page: p}
		p.frames[key] = f
	}
	return f
}

// Frame returns the frame registered for an iframe selector.
func (p *Page) Frame(selector string) *Frame { return p.frame(selector) }

func (p *Page) Kind() automation.Kind { return automation.KindPage }

func (p *Page) Locator(selector string) automation.Element { return p.Element(selector) }

func (p *Page) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return p.Element(RoleKey(role, opts))
}

func (p *Page) GetByText(text string) automation.Element   { return p.Element("text=" + text) }
func (p *Page) GetByLabel(label string) automation.Element { return p.Element("label=" + label) }
func (p *Page) FrameLocator(selector string) automation.Frame {
	return p.frame(selector)
}

func (p *Page) URL() string { return p.CurrentURL }

func (p *Page) Title() (string, error) { return p.TitleText, nil }

func (p *Page) Content() (string, error) {
	p.Rec.Record("%s.content", p.Name)
	return p.HTML, nil
}

func (p *Page) Goto(url string, opts automation.GotoOptions) error {
	p.Rec.Record("%s.goto %s", p.Name, url)
	if p.OnGoto != nil {
		return p.OnGoto(p, url)
	}
	p.CurrentURL = url
	return nil
}

func (p *Page) Reload() error {
	p.Rec.Record("%s.reload", p.Name)
	return nil
}

func (p *Page) WaitForURL(pattern string, timeout time.Duration) error {
	p.Rec.Record("%s.wait-for-url %s", p.Name, pattern)
	return p.WaitForURLErr
}

func (p *Page) WaitForSelector(selector string, opts automation.WaitOptions) (automation.Element, error) {
	p.Rec.Record("%s.wait-for-selector %s %s %s", p.Name, selector, opts.State, opts.Timeout)
	e := p.Element(selector)
	if e.WaitErr != nil {
		return nil, e.WaitErr
	}
	return e, nil
}

func (p *Page) Evaluate(script string, args ...any) (any, error) {
	p.Rec.Record("%s.evaluate", p.Name)
	return p.EvalResult, p.EvalErr
}

func (p *Page) Screenshot(fullPage bool) ([]byte, error) {
	p.Rec.Record("%s.screenshot", p.Name)
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return []byte("png"), nil
}

func (p *Page) SetDefaultTimeout(d time.Duration) {
	p.Rec.Record("%s.set-default-timeout %s", p.Name, d)
	p.DefaultTimeout = d
}

func (p *Page) SetDefaultNavigationTimeout(d time.Duration) {
	p.Rec.Record("%s.set-default-navigation-timeout %s", p.Name, d)
	p.NavigationTimeout = d
}

func (p *Page) Close() error {
	p.Rec.Record("%s.close", p.Name)
	p.Closed++
	return p.CloseErr
}

func (p *Page) Click(selector string) error    { return p.Element(selector).Click() }
func (p *Page) Dblclick(selector string) error { return p.Element(selector).Dblclick() }
func (p *Page) Tap(selector string) error      { return p.Element(selector).Tap() }
func (p *Page) Hover(selector string) error    { return p.Element(selector).Hover() }
func (p *Page) Focus(selector string) error    { return p.Element(selector).Focus() }
func (p *Page) Check(selector string) error    { return p.Element(selector).Check() }
func (p *Page) Uncheck(selector string) error  { return p.Element(selector).Uncheck() }

func (p *Page) Fill(selector, value string) error { return p.Element(selector).Fill(value) }
func (p *Page) Type(selector, text string) error  { return p.Element(selector).Type(text) }
func (p *Page) Press(selector, key string) error  { return p.Element(selector).Press(key) }

func (p *Page) SelectOption(selector string, values automation.SelectValues) ([]string, error) {
	return p.Element(selector).SelectOption(values)
}

func (p *Page) SetInputFiles(selector string, paths ...string) error {
	return p.Element(selector).SetInputFiles(paths...)
}

func (p *Page) DragAndDrop(source, target string) error {
	return p.Element(source).DragTo(p.Element(target))
}

// Frame is a scripted iframe scope.
type Frame struct {
	Name string
	Rec  *Recorder

	owner *Element
	page  *Page

	mu       sync.Mutex
	elements map[string]*Element
}

// Element returns (creating if needed) the element registered under key.
func (f *Frame) Element(key string) *Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.elements == nil {
		f.elements = make(map[string]*Element)
	}
	e, ok := f.elements[key]
	if !ok {
		e = &Element{Name: f.Name + " >> " + key, Rec: f.Rec, Owner: f.page}
		f.elements[key] = e
	}
	return e
}

func (f *Frame) Kind() automation.Kind { return automation.KindFrame }

func (f *Frame) Locator(selector string) automation.Element { return f.Element(selector) }

func (f *Frame) GetByRole(role string, opts automation.RoleOptions) automation.Element {
	return f.Element(RoleKey(role, opts))
}

func (f *Frame) GetByText(text string) automation.Element   { return f.Element("text=" + text) }
func (f *Frame) GetByLabel(label string) automation.Element { return f.Element("label=" + label) }

func (f *Frame) FrameLocator(selector string) automation.Frame {
	return f.Element(selector).ContentFrame()
}

func (f *Frame) Owner() automation.Element { return f.owner }
