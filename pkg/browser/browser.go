package browser

import (
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/harun/edupilot/pkg/automation"
)

var (
	_ automation.Browser         = (*Browser)(nil)
	_ automation.BrowsingContext = (*Context)(nil)
)

// Browser is one launched Chrome process
type Browser struct {
	engine   *Engine
	rod      *rod.Browser
	launcher *launcher.Launcher

	closeOnce sync.Once
	closeErr  error
}

// NewContext creates an incognito context, seeded from a storage state
// record when one is given
func (b *Browser) NewContext(opts automation.ContextOptions) (automation.BrowsingContext, error) {
	state, err := DecodeStorageState(opts.StorageState)
	if err != nil {
		return nil, err
	}

	incognito, err := b.rod.Incognito()
	if err != nil {
		return nil, newError(ErrCodeBrowserCrash, err, "Failed to create browsing context")
	}

	c := &Context{browser: b, rod: incognito, state: state}

	cookies := make([]Cookie, 0, len(state.Cookies))
	for _, ck := range state.Cookies {
		if err := ValidateCookieParams(ck); err != nil {
			b.engine.logger.Warn().Err(err).Str("cookie", ck.Name).Msg("Skipping invalid cookie")
			continue
		}
		cookies = append(cookies, ck)
	}

	if len(cookies) > 0 {
		if err := incognito.SetCookies(toCookieParams(cookies)); err != nil {
			incognito.Close()
			return nil, newError(ErrCodeBrowserCrash, err, "Failed to restore cookies")
		}
	}

	return c, nil
}

// Close closes Chrome and waits for the process to exit. Repeated calls
// return the first result.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if err := b.rod.Close(); err != nil {
			b.closeErr = newError(ErrCodeBrowserCrash, err, "Failed to close browser")
			b.launcher.Kill()
		} else {
			b.launcher.Cleanup()
		}
		b.engine.forget(b)
		b.engine.logger.Debug().Msg("Browser closed")
	})
	return b.closeErr
}

// Context is an incognito browser context
type Context struct {
	browser *Browser
	rod     *rod.Browser
	state   *StorageState

	mu    sync.Mutex
	pages []*Page

	closeOnce sync.Once
	closeErr  error
}

// Pages lists the open pages of this context
func (c *Context) Pages() ([]automation.Page, error) {
	targets, err := proto.TargetGetTargets{}.Call(c.rod)
	if err != nil {
		return nil, newError(ErrCodeBrowserCrash, err, "Failed to list pages")
	}

	c.mu.Lock()
	known := make(map[proto.TargetTargetID]*Page, len(c.pages))
	for _, p := range c.pages {
		known[p.rod.TargetID] = p
	}
	c.mu.Unlock()

	var out []automation.Page
	for _, info := range targets.TargetInfos {
		if info.Type != proto.TargetTargetInfoTypePage || info.BrowserContextID != c.rod.BrowserContextID {
			continue
		}
		if p, ok := known[info.TargetID]; ok {
			out = append(out, p)
			continue
		}
		rp, err := c.rod.PageFromTarget(info.TargetID)
		if err != nil {
			return nil, newError(ErrCodeBrowserCrash, err, "Failed to attach to page")
		}
		out = append(out, c.track(rp))
	}
	return out, nil
}

// NewPage opens a blank tab with the context's local storage preloaded
func (c *Context) NewPage() (automation.Page, error) {
	rp, err := c.rod.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, newError(ErrCodeBrowserCrash, err, "Failed to create page")
	}

	if script := localStorageScript(c.state.Origins); script != "" {
		if _, err := rp.EvalOnNewDocument(script); err != nil {
			rp.Close()
			return nil, newError(ErrCodeScriptExecution, err, "Failed to restore local storage")
		}
	}

	return c.track(rp), nil
}

func (c *Context) track(rp *rod.Page) *Page {
	p := newPage(c, rp)
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p
}

func (c *Context) untrack(p *Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, known := range c.pages {
		if known == p {
			c.pages = append(c.pages[:i], c.pages[i+1:]...)
			return
		}
	}
}

// StorageState captures cookies and the local storage of every open page
func (c *Context) StorageState() ([]byte, error) {
	cookies, err := c.rod.GetCookies()
	if err != nil {
		return nil, newError(ErrCodeBrowserCrash, err, "Failed to read cookies")
	}

	state := &StorageState{Cookies: fromNetworkCookies(cookies)}

	pages, err := c.Pages()
	if err != nil {
		return nil, err
	}
	for _, ap := range pages {
		p := ap.(*Page)
		origin, err := p.localStorage()
		if err != nil {
			c.browser.engine.logger.Debug().Err(err).Msg("Skipping local storage of page")
			continue
		}
		if origin != nil {
			state.Origins = mergeOrigin(state.Origins, *origin)
		}
	}

	return EncodeStorageState(state)
}

// Close disposes the incognito context and its pages
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		if err := c.rod.Close(); err != nil {
			c.closeErr = newError(ErrCodeBrowserCrash, err, "Failed to close browsing context")
		}
	})
	return c.closeErr
}
