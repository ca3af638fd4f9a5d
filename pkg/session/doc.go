// Package session persists the authenticated portal session and decides,
// per run, whether the stored record is still usable.
//
// Invariants:
// - The record is opaque; only its existence is checked without a browser.
// - A probe that finds the record invalid closes the context, then the
//   browser, before returning.
// - A valid probe hands the open browser and context to the caller.
// - Records are replaced atomically; concurrent writers are last-writer-wins.
//
// Usage:
//
//	store, _ := session.NewStore("/home/me/.edupilot/auth.json")
//	mgr, _ := session.NewManager(session.ManagerConfig{
//		Engine:        engine,
//		Store:         store,
//		Authenticator: flow,
//		CanaryURL:     "https://1itg.edupage.org/user/",
//	})
//	browser, bctx, err := mgr.NewContext(ctx)
package session
