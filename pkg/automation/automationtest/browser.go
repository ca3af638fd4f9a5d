package automationtest

import (
	"context"
	"fmt"

	"github.com/harun/edupilot/pkg/automation"
)

var (
	_ automation.Engine          = (*Engine)(nil)
	_ automation.Browser         = (*Browser)(nil)
	_ automation.BrowsingContext = (*Context)(nil)
)

// Context is a scripted browsing context. Lifecycle calls are recorded as
// "context.<op>".
type Context struct {
	Rec *Recorder

	Existing   []*Page
	Created    []*Page
	State      []byte
	StateErr   error
	NewPageErr error
	CloseErr   error
	Closed     int

	// NewPageFunc customizes pages returned by NewPage.
	NewPageFunc func() *Page
}

func (c *Context) Pages() ([]automation.Page, error) {
	out := make([]automation.Page, 0, len(c.Existing)+len(c.Created))
	for _, p := range c.Existing {
		out = append(out, p)
	}
	for _, p := range c.Created {
		out = append(out, p)
	}
	return out, nil
}

func (c *Context) NewPage() (automation.Page, error) {
	c.Rec.Record("context.new-page")
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	var p *Page
	if c.NewPageFunc != nil {
		p = c.NewPageFunc()
	} else {
		p = NewPage(c.Rec, fmt.Sprintf("page%d", len(c.Existing)+len(c.Created)))
	}
	c.Created = append(c.Created, p)
	return p, nil
}

func (c *Context) StorageState() ([]byte, error) {
	c.Rec.Record("context.storage-state")
	return c.State, c.StateErr
}

func (c *Context) Close() error {
	c.Rec.Record("context.close")
	c.Closed++
	return c.CloseErr
}

// Browser is a scripted browser handing out one shared Context.
type Browser struct {
	Rec *Recorder

	Context       *Context
	NewContextErr error
	CloseErr      error
	Closed        int
	Contexts      []automation.ContextOptions
}

func (b *Browser) NewContext(opts automation.ContextOptions) (automation.BrowsingContext, error) {
	b.Rec.Record("browser.new-context")
	b.Contexts = append(b.Contexts, opts)
	if b.NewContextErr != nil {
		return nil, b.NewContextErr
	}
	if b.Context == nil {
		b.Context = &Context{Rec: b.Rec}
	}
	return b.Context, nil
}

func (b *Browser) Close() error {
	b.Rec.Record("browser.close")
	b.Closed++
	return b.CloseErr
}

// Engine is a scripted engine. Launch returns Browser, or a fresh one from
// NewBrowser when set.
type Engine struct {
	Rec *Recorder

	Browser    *Browser
	NewBrowser func() *Browser
	LaunchErr  error
	CloseErr   error
	Launches   []automation.LaunchOptions
	Closed     int
}

// NewEngine wires an engine, browser, context and one existing page to a
// single recorder.
func NewEngine(rec *Recorder) *Engine {
	page := NewPage(rec, "page0")
	ctx := &Context{Rec: rec, Existing: []*Page{page}}
	return &Engine{Rec: rec, Browser: &Browser{Rec: rec, Context: ctx}}
}

func (e *Engine) Launch(ctx context.Context, opts automation.LaunchOptions) (automation.Browser, error) {
	e.Rec.Record("engine.launch")
	e.Launches = append(e.Launches, opts)
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	if e.NewBrowser != nil {
		return e.NewBrowser(), nil
	}
	if e.Browser == nil {
		e.Browser = &Browser{Rec: e.Rec}
	}
	return e.Browser, nil
}

func (e *Engine) Close() error {
	e.Rec.Record("engine.close")
	e.Closed++
	return e.CloseErr
}

// Page0 returns the first existing page of the engine's context.
func (e *Engine) Page0() *Page {
	if e.Browser == nil || e.Browser.Context == nil || len(e.Browser.Context.Existing) == 0 {
		return nil
	}
	return e.Browser.Context.Existing[0]
}
