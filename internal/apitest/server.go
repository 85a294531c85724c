package apitest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/common"
)

// Responses the fake gives for token problems.
const (
	CodeTokenNotValid = "token_not_valid"
	MsgTokenNotValid  = "Given token not valid for any token type"
	MsgNoCredentials  = "Authentication credentials were not provided."
	MsgForbidden      = "You do not have permission to perform this action."
)

// RecordedRequest is one request seen by the fake.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	CSRFToken     string
}

type account struct {
	models.User
	password string
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	secret      []byte
	accessTTL   time.Duration
	lastTokenID int64
	revokedUpTo int64

	users       map[int64]*account
	lastUserID  int64
	refresh     map[string]int64
	resetTokens map[string]int64

	posts         map[int64]*models.Post
	lastPostID    int64
	lastCommentID int64
	tags          map[string]models.Tag
	reactions     map[reactionKey]bool

	requests     []RecordedRequest
	refreshCalls int
	failRefresh  int
	failLogout   bool
	suggest      func(text string) string
}

// New starts a fake API whose routes live under /api. It is closed with the
// test.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:      []byte("apitest-secret"),
		accessTTL:   5 * time.Minute,
		users:       map[int64]*account{},
		refresh:     map[string]int64{},
		resetTokens: map[string]int64{},
		posts:       map[int64]*models.Post{},
		tags:        map[string]models.Tag{},
		reactions:   map[reactionKey]bool{},
		suggest:     func(text string) string { return "Improved: " + text },
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to configure the client with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register/{$}", s.handleRegister)
	mux.HandleFunc("POST /api/login/{$}", s.handleLogin)
	mux.HandleFunc("POST /api/logout/{$}", s.handleLogout)
	mux.HandleFunc("POST /api/refresh/{$}", s.handleRefresh)
	mux.HandleFunc("POST /api/password/reset/{$}", s.handleResetRequest)
	mux.HandleFunc("POST /api/password/reset/{token}/{$}", s.handleResetConfirm)

	mux.HandleFunc("GET /api/posts/{$}", s.handleListPosts)
	mux.HandleFunc("GET /api/posts/tags/{$}", s.handleListTags)
	mux.HandleFunc("GET /api/posts/author/{id}/{$}", s.handleAuthor)
	mux.HandleFunc("POST /api/posts/create/{$}", s.handleCreatePost)
	mux.HandleFunc("GET /api/posts/{id}/{$}", s.handleGetPost)
	mux.HandleFunc("PUT /api/posts/{id}/update/{$}", s.handleUpdatePost)
	mux.HandleFunc("DELETE /api/posts/{id}/{$}", s.handleDeletePost)
	mux.HandleFunc("POST /api/posts/{id}/comment/{$}", s.handleComment)
	mux.HandleFunc("POST /api/posts/{id}/react/{emoji}/{$}", s.handleReact)
	mux.HandleFunc("POST /api/posts/{id}/suggestions/{$}", s.handleSuggest)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, "/api"),
			Authorization: r.Header.Get(common.AuthorizationHeaderName),
			CSRFToken:     r.Header.Get(common.CSRFHeaderName),
		})
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// AddUser creates an account directly, bypassing /register/.
func (s *Server) AddUser(username, email, password string, staff bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password, staff).User
}

func (s *Server) addUserLocked(username, email, password string, staff bool) *account {
	s.lastUserID++
	a := &account{
		User:     models.User{ID: s.lastUserID, Username: username, Email: email, IsStaff: staff},
		password: password,
	}
	s.users[a.ID] = a
	return a
}

// IssueAccessToken mints a valid access token for the user.
func (s *Server) IssueAccessToken(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.generateToken(userID)
	if err != nil {
		panic(err)
	}
	return token
}

// ExpireAccessTokens makes every access token issued so far invalid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokedUpTo = s.lastTokenID
}

// FailRefresh makes /refresh/ answer with status. Zero restores normal
// behaviour.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = status
}

// FailLogout makes /logout/ answer 500.
func (s *Server) FailLogout(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogout = fail
}

// SetSuggest replaces the text rewriting done by /suggestions/.
func (s *Server) SetSuggest(fn func(string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggest = fn
}

// AddResetToken registers a password reset token for the user.
func (s *Server) AddResetToken(userID int64, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[token] = userID
}

// RefreshCalls counts hits on /refresh/.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Requests returns a copy of the requests seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsTo filters Requests by path.
func (s *Server) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Password returns the current password of a user, for reset tests.
func (s *Server) Password(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.users[userID]; ok {
		return a.password
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON")
		return false
	}
	return true
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
