package apitest

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

func (s *Server) generateToken(userID int64) (string, error) {
	s.lastTokenID++
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.FormatInt(s.lastTokenID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
		},
		UserID: userID,
	})
	return token.SignedString(s.secret)
}

// userIDFromToken validates signature, expiry and revocation of an access
// token. Callers hold s.mu.
func (s *Server) userIDFromToken(tokenString string) (int64, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errInvalidToken
	}

	id, err := strconv.ParseInt(c.ID, 10, 64)
	if err != nil || id <= s.revokedUpTo {
		return 0, errInvalidToken
	}
	return c.UserID, nil
}
