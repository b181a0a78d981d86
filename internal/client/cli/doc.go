// Package cli is the interactive PIN login terminal.
//
// It has two surfaces. The login surface offers the login and signup forms;
// arriving there always clears the current session. The main surface is
// reachable only with a session and offers whoami, status and logout.
//
// Form outcomes are shown as a single status line (">_ MESSAGE") from a
// fixed vocabulary, see MessageFor. Messages disappear after the configured
// TTL; after a successful login or signup the terminal waits RedirectDelay
// before switching to the main surface.
//
// The terminal is started with App.Run, which blocks until the user exits.
package cli
