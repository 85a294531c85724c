// Package session owns the authenticated session of the client.
//
// Manager wraps a client.Client with the token refresh policy: a request
// answered with 401 and code "token_not_valid" triggers one POST /refresh/
// and, if that yields a new access token, one retry of the original request.
// When the refresh fails the stored credential is cleared, the expiry handler
// runs and the caller gets an error matching ErrSessionExpired.
//
// Concurrent callers that hit an expired token share a single refresh.
package session
