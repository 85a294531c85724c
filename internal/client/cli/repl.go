package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/blogclient/internal/client/client"
	"github.com/dmitrijs2005/blogclient/internal/client/services"
	"github.com/dmitrijs2005/blogclient/internal/client/session"
	"github.com/dmitrijs2005/blogclient/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	consumeExpired() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ResetRequest(ctx context.Context) error
	ResetConfirm(ctx context.Context, args []string) error

	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Create(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Comment(ctx context.Context, args []string) error
	React(ctx context.Context, args []string) error
	Suggest(ctx context.Context, args []string) error
	Tags(ctx context.Context) error
	Author(ctx context.Context, args []string) error
}

const (
	helpGuest = "Available commands: register, login, reset, reset-confirm [token], (l)ist [tag], show <id>, tags, author <id>, exit"
	helpUser  = "Available commands: (l)ist [tag], show <id>, tags, author <id>, create, edit <id>, delete <id>, " +
		"comment <id>, react <id> <emoji>, suggest <id>, whoami, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop ends on EOF, on "exit" or "quit", or when ctx is cancelled.
//
// Command errors are printed and the loop goes on. When a command ended the
// session (the token refresh failed) the user is asked to log in again
// before the next prompt.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("blog %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			printlnFn("Input error:", err)
			return
		}
		eof := err != nil

		parts := strings.Fields(line)
		if len(parts) > 0 {
			if quit := dispatch(ctx, a, parts[0], parts[1:]); quit {
				return
			}
			if a.consumeExpired() {
				printlnFn("Your session has expired. Please log in again.")
				report(a.Login(ctx))
			}
		}

		if eof {
			return
		}
	}
}

// dispatch runs one command and reports whether the REPL should stop.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) bool {
	switch cmd {
	case "help":
		if a.isLoggedIn(ctx) {
			printlnFn(helpUser)
		} else {
			printlnFn(helpGuest)
		}

	case "register":
		report(a.Register(ctx))
	case "login":
		report(a.Login(ctx))
	case "logout":
		report(a.Logout(ctx))
	case "whoami":
		report(a.WhoAmI(ctx))
	case "reset":
		report(a.ResetRequest(ctx))
	case "reset-confirm":
		report(a.ResetConfirm(ctx, args))

	case "l", "list":
		report(a.List(ctx, args))
	case "show":
		report(a.Show(ctx, args))
	case "create":
		report(a.Create(ctx))
	case "edit":
		report(a.Edit(ctx, args))
	case "delete":
		report(a.Delete(ctx, args))
	case "comment":
		report(a.Comment(ctx, args))
	case "react":
		report(a.React(ctx, args))
	case "suggest":
		report(a.Suggest(ctx, args))
	case "tags":
		report(a.Tags(ctx))
	case "author":
		report(a.Author(ctx, args))

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		printlnFn("Unknown command:", cmd)
	}
	return false
}

// report prints a command error in a form meant for the user.
func report(err error) {
	if err == nil {
		return
	}
	printlnFn(describeError(err))
}

func describeError(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return "Your session has expired."
	case errors.Is(err, services.ErrAdminOnly):
		return "Only administrators can do that."
	case errors.Is(err, services.ErrSuggestionsUnavailable):
		return "Suggestions are not available for this post."
	case errors.Is(err, common.ErrValidation):
		return err.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "Error: " + client.MsgConnection
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	}

	if apiErr, ok := client.AsAPIError(err); ok {
		return "Error: " + apiErr.Message()
	}
	return "Error: " + err.Error()
}
