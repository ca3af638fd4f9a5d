// Package automation defines the engine-agnostic handle contracts that the
// session manager, the readiness proxy and the scenarios program against.
//
// Invariants:
// - Every handle reports its kind through Kind(); wrappers delegate it.
// - Handle-returning operations are lazy; nothing touches the browser until
//   an action or query runs.
// - Timeouts surface as errors matching ErrTimeout via errors.Is.
//
// Usage:
//
//	browser, _ := engine.Launch(ctx, automation.LaunchOptions{Headless: true})
//	bctx, _ := browser.NewContext(automation.ContextOptions{StorageState: record})
//	page, _ := bctx.NewPage()
//	_ = page.Goto("https://example.org/", automation.GotoOptions{})
//	_ = page.Locator("text=Sign in").Click()
package automation
