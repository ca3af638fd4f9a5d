// Package scenario defines the contract between the runner and the portal
// automations it executes.
package scenario

import (
	"context"

	"github.com/harun/edupilot/pkg/readiness"
)

// Scenario drives the portal through a readiness-wrapped page.
type Scenario interface {
	Run(ctx context.Context, ui readiness.Page) error
}

// Func adapts a function to Scenario.
type Func func(ctx context.Context, ui readiness.Page) error

func (f Func) Run(ctx context.Context, ui readiness.Page) error {
	return f(ctx, ui)
}

// Factory builds a scenario. It is called once the page is ready, so
// construction errors surface before any portal interaction.
type Factory func() (Scenario, error)

// Of returns a factory that always yields s.
func Of(s Scenario) Factory {
	return func() (Scenario, error) { return s, nil }
}
