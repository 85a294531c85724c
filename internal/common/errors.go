package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks input rejected locally, before any network call.
var ErrValidation = errors.New("validation error")

// Required checks name/value pairs and reports the first blank value as an
// ErrValidation. An odd trailing name is ignored.
//
//	err := common.Required("username", u, "password", p)
func Required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, pairs[i])
		}
	}
	return nil
}
