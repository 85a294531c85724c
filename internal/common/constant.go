// Package common contains constants, sentinel errors and helpers shared by
// the client packages.
package common

// Header and cookie names exchanged with the blog API.
const (
	AuthorizationHeaderName = "Authorization"
	CSRFHeaderName          = "X-CSRFToken"
	CSRFCookieName          = "csrftoken"
	RequestIDHeaderName     = "X-Request-ID"
	RefreshCookieName       = "refresh_token"
)
