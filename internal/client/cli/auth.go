package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// readSecret prompts for a password and returns it as a string, wiping the
// raw bytes.
func (a *App) readSecret() (string, error) {
	pw, err := getPassword(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for username, email and password and creates an account.
// A successful registration also logs the user in.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret()
	if err != nil {
		return err
	}

	u, err := a.session.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	a.printf("Welcome, %s! You are logged in.\n", u.Username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret()
	if err != nil {
		return err
	}

	u, err := a.session.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	a.printf("Logged in as %s\n", u.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}

// WhoAmI prints the stored identity and when the access token expires.
func (a *App) WhoAmI(ctx context.Context) error {
	cred, found, err := a.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !found {
		a.println("Not logged in")
		return nil
	}

	role := "user"
	if cred.IsStaff {
		role = "admin"
	}
	a.printf("%s <%s> (id %d, %s)\n", cred.Username, cred.Email, cred.ID, role)

	exp, err := cred.ExpiresAt()
	switch {
	case errors.Is(err, models.ErrNoExpiry):
		a.println("Access token does not expire")
	case err != nil:
		a.log.Debug(ctx, "cannot read token expiry", "error", err)
	case time.Until(exp) <= 0:
		a.printf("Access token expired at %s; it will be refreshed on the next request\n", exp.Local().Format(time.RFC1123))
	default:
		a.printf("Access token valid until %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

// ResetRequest asks the server to mail a password reset link.
func (a *App) ResetRequest(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter the email of your account", a.out)
	if err != nil {
		return err
	}

	ack, err := a.session.ResetPasswordRequest(ctx, email)
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}
	a.println(ack.Message)
	return nil
}

// ResetConfirm sets a new password with the token from the reset link. The
// token may be given as an argument or typed in.
func (a *App) ResetConfirm(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		var err error
		if token, err = getSimpleText(a.reader, "Enter reset token", a.out); err != nil {
			return err
		}
	}

	password, err := a.readSecret()
	if err != nil {
		return err
	}

	ack, err := a.session.ResetPasswordConfirm(ctx, token, password)
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}
	a.println(ack.Message)
	return nil
}
