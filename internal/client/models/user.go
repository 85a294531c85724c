// Package models defines client-side data models exchanged with the blog API
// and persisted by the credential store.
package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the public identity returned by the API.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

// Credential is the locally stored session: the user identity plus the
// current bearer token. It serializes flat as
// {id, username, email, is_staff, token}.
type Credential struct {
	User
	Token string `json:"token"`
}

// ErrNoExpiry is returned by ExpiresAt for tokens without an "exp" claim.
var ErrNoExpiry = errors.New("token has no expiry")

// ExpiresAt reads the "exp" claim of the bearer token. The signature is not
// verified; the server remains the authority on validity.
func (c Credential) ExpiresAt() (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// AuthResponse is the body of successful /login/ and /register/ calls.
type AuthResponse struct {
	User   *User  `json:"user"`
	Access string `json:"access"`
}

// Ack is a plain acknowledgement such as {"message": "..."}.
type Ack struct {
	Message string `json:"message"`
}
