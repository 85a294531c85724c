// Package client is the HTTP transport for the blog API.
//
// # Overview
//
// HTTPClient sends Requests relative to a fixed base URL and returns the raw
// Response. Every outgoing *http.Request passes through an ordered chain of
// RequestTransforms (bearer token, CSRF header, request id) and every round
// trip is reported to an ordered chain of ResponseHandlers (logging).
//
// Cookies are kept in a Jar, which can be backed by a CookieStore so the
// refresh cookie outlives the process.
//
// # Error Handling
//
// A non-2xx answer is returned as *APIError carrying the status and the decoded
// JSON payload. Connection failures and timeouts produce an *APIError with
// Status 0 that wraps ErrUnavailable; 401 and 403 wrap ErrUnauthorized. A
// cancelled context is returned unchanged.
//
// The client does not refresh tokens itself. That policy belongs to the
// session package, which wraps Do.
package client
