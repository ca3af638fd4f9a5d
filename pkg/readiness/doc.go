// Package readiness wraps automation handles so that every state-changing
// operation first waits for its target to become ready.
//
// Invariants:
// - ActionStates is the only place that decides whether an operation waits
//   and for which state.
// - Handles returned by a wrapped handle are wrapped with the same timeout
//   and observer.
// - Wait errors are returned untouched; nothing is retried.
// - Proxies report the wrapped handle's Kind and Unwrap to it.
//
// Usage:
//
//	ui := readiness.WrapPage(page, 5*time.Second)
//	_ = ui.Locator("text=Známky").Click() // waits for visible, then clicks
package readiness
