package automation

import (
	"context"
	"time"
)

// Kind tags the handle variants that can flow out of the automation API.
type Kind int

const (
	KindOpaque Kind = iota
	KindPage
	KindElement
	KindFrame
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindElement:
		return "element"
	case KindFrame:
		return "frame"
	default:
		return "opaque"
	}
}

// Handle is implemented by every page, element and frame handle.
type Handle interface {
	Kind() Kind
}

// KindOf reports the kind of v; anything that is not a Handle is opaque.
func KindOf(v any) Kind {
	if h, ok := v.(Handle); ok && h != nil {
		return h.Kind()
	}
	return KindOpaque
}

// Querier produces lazy element handles scoped to a document.
type Querier interface {
	Locator(selector string) Element
	GetByRole(role string, opts RoleOptions) Element
	GetByText(text string) Element
	GetByLabel(label string) Element
	FrameLocator(selector string) Frame
}

// Actions are the state-changing interactions shared by elements. Page
// exposes the same set addressed by selector.
type Actions interface {
	Click() error
	Dblclick() error
	Tap() error
	Hover() error
	Focus() error
	Check() error
	Uncheck() error
	Fill(value string) error
	Type(text string) error
	Press(key string) error
	SelectOption(values SelectValues) ([]string, error)
	SetInputFiles(paths ...string) error
	DragTo(target Element) error
}

// Element is a lazy locator: it re-resolves against the live document on
// every call.
type Element interface {
	Handle
	Actions

	Locator(selector string) Element
	GetByRole(role string, opts RoleOptions) Element
	GetByText(text string) Element
	GetByLabel(label string) Element
	Filter(opts FilterOptions) Element
	Nth(index int) Element
	First() Element
	Last() Element
	All() ([]Element, error)
	ContentFrame() Frame
	Page() Page

	Count() (int, error)
	TextContent() (string, error)
	InnerText() (string, error)
	InnerHTML() (string, error)
	AllTextContents() ([]string, error)
	GetAttribute(name string) (string, bool, error)
	InputValue() (string, error)
	IsVisible() (bool, error)
	IsChecked() (bool, error)
	IsEnabled() (bool, error)
	BoundingBox() (*Box, error)
	Evaluate(script string, arg any) (any, error)
	WaitFor(opts WaitOptions) error
}

// Frame addresses the document of an iframe element.
type Frame interface {
	Handle
	Querier
	Owner() Element
}

// Page is a single tab in a browsing context.
type Page interface {
	Handle
	Querier

	URL() string
	Title() (string, error)
	Content() (string, error)
	Goto(url string, opts GotoOptions) error
	Reload() error
	WaitForURL(pattern string, timeout time.Duration) error
	WaitForSelector(selector string, opts WaitOptions) (Element, error)
	Evaluate(script string, args ...any) (any, error)
	Screenshot(fullPage bool) ([]byte, error)
	SetDefaultTimeout(d time.Duration)
	SetDefaultNavigationTimeout(d time.Duration)
	Close() error

	Click(selector string) error
	Dblclick(selector string) error
	Tap(selector string) error
	Hover(selector string) error
	Focus(selector string) error
	Check(selector string) error
	Uncheck(selector string) error
	Fill(selector, value string) error
	Type(selector, text string) error
	Press(selector, key string) error
	SelectOption(selector string, values SelectValues) ([]string, error)
	SetInputFiles(selector string, paths ...string) error
	DragAndDrop(source, target string) error
}

// BrowsingContext is an isolated cookie and storage jar.
type BrowsingContext interface {
	Pages() ([]Page, error)
	NewPage() (Page, error)
	// StorageState serializes cookies and local storage into an opaque
	// record accepted by ContextOptions.StorageState.
	StorageState() ([]byte, error)
	Close() error
}

// Browser is one launched browser process.
type Browser interface {
	NewContext(opts ContextOptions) (BrowsingContext, error)
	Close() error
}

// Engine launches browsers. Close releases anything still running.
type Engine interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
	Close() error
}
