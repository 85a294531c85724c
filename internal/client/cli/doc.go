// Package cli provides the interactive blog command-line client.
//
// It binds a session (login, logout, password reset) and the posts service to
// a small REPL. The session is restored from the credential store at start-up,
// and when a token refresh fails the user is asked to log in again before the
// next command.
//
// Key features:
//   - Register / Login / Logout / whoami
//   - Password reset request and confirmation
//   - Browse posts, tags and authors
//   - Write, edit and delete posts (staff), with AI suggestions
//   - Comment and react
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
