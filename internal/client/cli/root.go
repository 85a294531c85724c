package cli

import (
	"context"
)

// Root greets the user, reports a session restored from the credential
// store and runs the REPL until the user exits or ctx is cancelled.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to the blog CLI (type 'help' for commands)")

	if cred, found, err := a.session.CurrentUser(ctx); err != nil {
		a.log.Error(ctx, "failed to restore session", "error", err)
	} else if found {
		a.printf("Signed in as %s\n", cred.Username)
	}

	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader)
}
