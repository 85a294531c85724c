package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/client/services"
	"github.com/dmitrijs2005/blogclient/internal/logging"
)

// SessionService is the part of session.Manager the CLI drives.
type SessionService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
	Logout(ctx context.Context) error
	ResetPasswordRequest(ctx context.Context, email string) (*models.Ack, error)
	ResetPasswordConfirm(ctx context.Context, token, password string) (*models.Ack, error)
	CurrentUser(ctx context.Context) (models.Credential, bool, error)
}

type App struct {
	session SessionService
	posts   services.PostService
	reader  *bufio.Reader
	out     io.Writer
	log     logging.Logger
	expired atomic.Bool
}

// NewApp creates an App reading commands from in. Bind must be called
// before Root.
func NewApp(in io.Reader, out io.Writer, log logging.Logger) *App {
	return &App{reader: bufio.NewReader(in), out: out, log: log}
}

// Bind attaches the session and the posts service. It is separate from
// NewApp because the session manager is built with OnSessionExpired as its
// expiry handler.
func (a *App) Bind(s SessionService, p services.PostService) {
	a.session = s
	a.posts = p
}

// OnSessionExpired is the session expiry handler. The REPL asks for a new
// login before reading the next command.
func (a *App) OnSessionExpired(ctx context.Context, err error) {
	a.log.Warn(ctx, "session ended by failed token refresh", "error", err)
	a.expired.Store(true)
}

func (a *App) consumeExpired() bool {
	return a.expired.Swap(false)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	_, found, err := a.session.CurrentUser(ctx)
	if err != nil {
		a.log.Error(ctx, "failed to read credential", "error", err)
		return false
	}
	return found
}

func (a *App) getStatus(ctx context.Context) string {
	cred, found, err := a.session.CurrentUser(ctx)
	if err != nil || !found {
		return ""
	}
	if cred.IsStaff {
		return fmt.Sprintf("(%s, admin)", cred.Username)
	}
	return fmt.Sprintf("(%s)", cred.Username)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
