package apitest

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/common"
)

const refreshMaxAge = 7 * 24 * 60 * 60

// bearer checks the Authorization header. A present but bad token is
// rejected even where anonymous access is allowed. Callers hold s.mu.
func (s *Server) bearer(w http.ResponseWriter, r *http.Request, required bool) (*account, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if h == "" {
		if required {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": MsgNoCredentials})
			return nil, false
		}
		return nil, true
	}

	userID, err := s.userIDFromToken(strings.TrimPrefix(h, "Bearer "))
	a, found := s.users[userID]
	if err != nil || !found {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": MsgTokenNotValid,
			"code":   CodeTokenNotValid,
		})
		return nil, false
	}
	return a, true
}

func (s *Server) issueSession(w http.ResponseWriter, a *account, status int) {
	access, err := s.generateToken(a.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.setRefreshCookie(w, a.ID)

	u := a.User
	writeJSON(w, status, models.AuthResponse{User: &u, Access: access})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, userID int64) {
	token := randomToken()
	s.refresh[token] = userID
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   refreshMaxAge,
	})
	http.SetCookie(w, &http.Cookie{Name: common.CSRFCookieName, Value: randomToken(), Path: "/"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bearer(w, r, false); !ok {
		return
	}

	for _, a := range s.users {
		if a.Username == in.Username {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"username": {"A user with that username already exists."},
			})
			return
		}
	}
	if !strings.Contains(in.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"Enter a valid email address."}})
		return
	}

	a := s.addUserLocked(in.Username, in.Email, in.Password, false)
	s.issueSession(w, a, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a stale bearer fails authentication before the view runs
	if _, ok := s.bearer(w, r, false); !ok {
		return
	}

	for _, a := range s.users {
		if a.Username != in.Username {
			continue
		}
		if a.password != in.Password {
			writeError(w, http.StatusUnauthorized, "Incorrect password")
			return
		}
		s.issueSession(w, a, http.StatusOK)
		return
	}
	writeError(w, http.StatusUnauthorized, "User not found")
}

// handleRefresh ignores the Authorization header; the refresh cookie is the
// only credential it looks at.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++

	if s.failRefresh != 0 {
		writeError(w, s.failRefresh, "Token is invalid or expired")
		return
	}

	c, err := r.Cookie(common.RefreshCookieName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Refresh token not provided")
		return
	}
	userID, ok := s.refresh[c.Value]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	delete(s.refresh, c.Value)

	access, err := s.generateToken(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.setRefreshCookie(w, userID)
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLogout {
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	c, err := r.Cookie(common.RefreshCookieName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Refresh token not provided")
		return
	}
	delete(s.refresh, c.Value)

	http.SetCookie(w, &http.Cookie{Name: common.RefreshCookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusResetContent, models.Ack{Message: "Successfully logged out"})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.users {
		if a.Email == in.Email {
			s.resetTokens[randomToken()] = a.ID
			writeJSON(w, http.StatusOK, models.Ack{Message: "Password reset email sent"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Email not found")
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token := r.PathValue("token")
	userID, ok := s.resetTokens[token]
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid token")
		return
	}
	delete(s.resetTokens, token)
	s.users[userID].password = in.Password
	writeJSON(w, http.StatusOK, models.Ack{Message: "Password has been reset"})
}
