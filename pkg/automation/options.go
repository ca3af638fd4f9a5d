package automation

import (
	"errors"
	"time"
)

// ErrTimeout is matched by every timeout the automation layer reports.
var ErrTimeout = errors.New("automation: timeout exceeded")

// WaitState is the element state a wait blocks for.
type WaitState string

const (
	StateVisible  WaitState = "visible"
	StateAttached WaitState = "attached"
	StateHidden   WaitState = "hidden"
	StateDetached WaitState = "detached"
)

// WaitOptions bounds a readiness wait. A zero Timeout means the page default.
type WaitOptions struct {
	State   WaitState
	Timeout time.Duration
}

// LoadState is the navigation milestone Goto waits for.
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// GotoOptions configures navigation.
type GotoOptions struct {
	WaitUntil LoadState
	Timeout   time.Duration
}

// FilterOptions narrows a locator to elements containing (or not) a text.
type FilterOptions struct {
	HasText    string
	HasNotText string
}

// RoleOptions narrows a role query by accessible name.
type RoleOptions struct {
	Name  string
	Exact bool
}

// SelectValues picks options either by value attribute or by visible label.
type SelectValues struct {
	Values []string
	Labels []string
}

// Box is an element's bounding rectangle in CSS pixels.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LaunchOptions controls how a browser is started.
type LaunchOptions struct {
	Headless bool
	SlowMo   time.Duration
}

// ContextOptions seeds a new browsing context.
type ContextOptions struct {
	// StorageState is a record previously produced by
	// BrowsingContext.StorageState. Empty means a fresh context.
	StorageState []byte
}
