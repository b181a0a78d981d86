// Package reconciler keeps one logical session consistent across the remote
// identity service and the on-device fallback store.
//
// A Reconciler is built explicitly and passed to whoever needs it. Init runs
// a one-time capability probe that selects ModeRemote or ModeFallback for the
// lifetime of the process; a failed probe never retries the remote service.
//
// All writes to the session go through a single goroutine fed by a message
// channel: explicit logins, sign-ups, logouts, login-surface resets and
// identity changes pushed by the remote service. Messages are applied in the
// order they are received, so the last processed message wins. Backend calls
// run on the caller's goroutine and never block the actor.
//
// CurrentUser and CurrentSession read a snapshot and never block on the
// actor or on I/O.
package reconciler
