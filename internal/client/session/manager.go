package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/dmitrijs2005/blogclient/internal/client/client"
	"github.com/dmitrijs2005/blogclient/internal/client/credentials"
	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/common"
	"github.com/dmitrijs2005/blogclient/internal/logging"
	"golang.org/x/sync/singleflight"
)

// API paths used by the manager.
const (
	PathRegister     = "/register/"
	PathLogin        = "/login/"
	PathLogout       = "/logout/"
	PathRefresh      = "/refresh/"
	PathResetRequest = "/password/reset/"
)

// CodeTokenNotValid is the payload code that marks an expired or invalid
// access token.
const CodeTokenNotValid = "token_not_valid"

var (
	ErrSessionExpired     = errors.New("session expired, please log in again")
	ErrMalformedAuth      = errors.New("malformed authentication response")
	errNoStoredCredential = errors.New("no stored credential")
)

// ExpiredHandler is called once per failed refresh, after the store has
// been cleared.
type ExpiredHandler func(ctx context.Context, err error)

type Manager struct {
	client    client.Client
	store     credentials.Store
	log       logging.Logger
	onExpired ExpiredHandler

	group singleflight.Group
	state atomic.Int32
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithExpiredHandler(h ExpiredHandler) Option {
	return func(m *Manager) { m.onExpired = h }
}

// NewManager restores the session state from store: a stored credential
// means Authenticated.
func NewManager(ctx context.Context, c client.Client, store credentials.Store, opts ...Option) (*Manager, error) {
	m := &Manager{client: c, store: store, log: logging.Nop()}
	for _, o := range opts {
		o(m)
	}

	_, found, err := store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if found {
		m.setState(Authenticated)
	}
	return m, nil
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

// CurrentUser returns the stored credential, if any.
func (m *Manager) CurrentUser(ctx context.Context) (models.Credential, bool, error) {
	return m.store.Get(ctx)
}

// Do sends req and applies the refresh policy to a 401 answer.
//
// The bearer is attached here rather than by the client's transforms so that
// the token compared in the refresh is exactly the one the server rejected.
func (m *Manager) Do(ctx context.Context, req *client.Request) (*client.Response, error) {
	sent, err := m.token(ctx)
	if err != nil {
		return nil, err
	}
	if h := req.Header.Get(common.AuthorizationHeaderName); h != "" {
		sent = strings.TrimPrefix(h, "Bearer ")
	}

	resp, err := m.client.Do(ctx, withBearer(req, sent))
	if err == nil || !needsRefresh(req, err) {
		return resp, err
	}

	if err := m.refresh(ctx, sent); err != nil {
		return nil, err
	}

	fresh, err := m.token(ctx)
	if err != nil {
		return nil, err
	}
	retry := withBearer(req, fresh)
	retry.Retried = true
	return m.client.Do(ctx, retry)
}

// withBearer returns a copy of req carrying token. A request that already
// has an Authorization header, or an empty token, is copied unchanged.
func withBearer(req *client.Request, token string) *client.Request {
	out := req.Clone()
	if token == "" || out.Header.Get(common.AuthorizationHeaderName) != "" {
		return out
	}
	if out.Header == nil {
		out.Header = http.Header{}
	}
	out.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	return out
}

func needsRefresh(req *client.Request, err error) bool {
	if req.Retried {
		return false
	}
	apiErr, ok := client.AsAPIError(err)
	return ok && apiErr.Status == http.StatusUnauthorized && apiErr.Code() == CodeTokenNotValid
}

func (m *Manager) token(ctx context.Context) (string, error) {
	cred, _, err := m.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return cred.Token, nil
}

// refresh joins or starts the shared refresh. The refresh itself is not
// bound to ctx so that one impatient caller cannot fail it for the others.
func (m *Manager) refresh(ctx context.Context, sent string) error {
	ch := m.group.DoChan("refresh", func() (any, error) {
		return nil, m.doRefresh(context.WithoutCancel(ctx), sent)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (m *Manager) doRefresh(ctx context.Context, sent string) error {
	cred, found, err := m.store.Get(ctx)
	if err != nil {
		return m.expire(ctx, fmt.Errorf("read credential: %w", err))
	}
	if !found {
		return m.expire(ctx, errNoStoredCredential)
	}
	if cred.Token != sent {
		// another caller already refreshed after this request was sent
		return nil
	}

	m.setState(RefreshInFlight)
	m.log.Debug(ctx, "access token rejected, refreshing", "user", cred.Username)

	req, err := client.NewRequest(http.MethodPost, PathRefresh, nil)
	if err != nil {
		return m.expire(ctx, err)
	}
	resp, err := m.client.Do(ctx, req)
	if err != nil {
		return m.expire(ctx, err)
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := resp.Decode(&out); err != nil {
		return m.expire(ctx, fmt.Errorf("%w: %w", ErrMalformedAuth, err))
	}
	if out.Access == "" {
		return m.expire(ctx, fmt.Errorf("%w: missing access token", ErrMalformedAuth))
	}

	cred.Token = out.Access
	if err := m.store.Set(ctx, cred); err != nil {
		return m.expire(ctx, fmt.Errorf("store refreshed credential: %w", err))
	}
	m.setState(Authenticated)
	m.log.Info(ctx, "access token refreshed", "user", cred.Username)
	return nil
}

// expire ends the session after an unrecoverable refresh failure.
func (m *Manager) expire(ctx context.Context, cause error) error {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Error(ctx, "failed to clear credential", "error", err)
	}
	m.setState(Unauthenticated)

	err := fmt.Errorf("%w: %w", ErrSessionExpired, cause)
	m.log.Warn(ctx, "session expired", "error", cause)
	if m.onExpired != nil {
		m.onExpired(ctx, err)
	}
	return err
}

func (m *Manager) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := common.Required("username", username, "email", email, "password", password); err != nil {
		return nil, err
	}

	req, err := client.NewRequest(http.MethodPost, PathRegister, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return m.startSession(ctx, req)
}

func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	if err := common.Required("username", username, "password", password); err != nil {
		return nil, err
	}

	req, err := client.NewRequest(http.MethodPost, PathLogin, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return m.startSession(ctx, req)
}

func (m *Manager) startSession(ctx context.Context, req *client.Request) (*models.User, error) {
	resp, err := m.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var auth models.AuthResponse
	if err := resp.Decode(&auth); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAuth, err)
	}
	if auth.User == nil || auth.Access == "" {
		return nil, ErrMalformedAuth
	}

	if err := m.store.Set(ctx, models.Credential{User: *auth.User, Token: auth.Access}); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	m.setState(Authenticated)
	m.log.Info(ctx, "logged in", "user", auth.User.Username)
	return auth.User, nil
}

// Logout tells the server to end the session and always clears the local
// credential. Only a failure to clear the store is returned.
func (m *Manager) Logout(ctx context.Context) error {
	req, err := client.NewRequest(http.MethodPost, PathLogout, nil)
	if err == nil {
		_, err = m.client.Do(ctx, req)
	}
	if err != nil {
		m.log.Warn(ctx, "server logout failed", "error", err)
	}

	m.setState(Unauthenticated)
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// ResetPasswordRequest asks the server to mail a reset link to email. It
// does not touch the session.
func (m *Manager) ResetPasswordRequest(ctx context.Context, email string) (*models.Ack, error) {
	if err := common.Required("email", email); err != nil {
		return nil, err
	}

	req, err := client.NewRequest(http.MethodPost, PathResetRequest, map[string]string{"email": email})
	if err != nil {
		return nil, err
	}
	return m.ack(ctx, req)
}

// ResetPasswordConfirm sets a new password using the token from the reset
// link. It does not touch the session.
func (m *Manager) ResetPasswordConfirm(ctx context.Context, token, password string) (*models.Ack, error) {
	if err := common.Required("token", token, "password", password); err != nil {
		return nil, err
	}

	req, err := client.NewRequest(http.MethodPost, PathResetRequest+url.PathEscape(token)+"/",
		map[string]string{"password": password})
	if err != nil {
		return nil, err
	}
	return m.ack(ctx, req)
}

func (m *Manager) ack(ctx context.Context, req *client.Request) (*models.Ack, error) {
	resp, err := m.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var ack models.Ack
	if err := resp.Decode(&ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
