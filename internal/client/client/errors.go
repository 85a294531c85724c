package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyBody    = errors.New("empty response body")
)

// MsgConnection is the message of errors produced when no response arrived.
const MsgConnection = "server connection error"

// APIError describes a failed call. Status is 0 when the server could not be
// reached.
type APIError struct {
	Status  int
	Payload map[string]any
	Raw     []byte
	// Err is the sentinel the error matches with errors.Is, if any.
	Err error
}

func newAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status, Raw: raw}

	var payload map[string]any
	if json.Unmarshal(raw, &payload) == nil {
		e.Payload = payload
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		e.Err = ErrUnauthorized
	}
	return e
}

func connectionError(cause error) *APIError {
	return &APIError{Err: fmt.Errorf("%w: %w", ErrUnavailable, cause)}
}

// Code is the machine readable "code" field of the payload, e.g.
// "token_not_valid".
func (e *APIError) Code() string {
	s, _ := e.Payload["code"].(string)
	return s
}

// Message is the human readable part of the payload: "error", then "detail",
// then the first field error. It falls back to the status text.
func (e *APIError) Message() string {
	if e.Status == 0 {
		return MsgConnection
	}
	for _, key := range []string{"error", "detail"} {
		if s, ok := e.Payload[key].(string); ok && s != "" {
			return s
		}
	}
	if msg := firstFieldError(e.Payload); msg != "" {
		return msg
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *APIError) Error() string {
	return e.Message()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// firstFieldError handles validation payloads shaped like
// {"username": ["A user with that username already exists."]}.
func firstFieldError(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k != "code" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := payload[k].(type) {
		case string:
			return k + ": " + v
		case []any:
			var msgs []string
			for _, m := range v {
				if s, ok := m.(string); ok {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				return k + ": " + strings.Join(msgs, " ")
			}
		}
	}
	return ""
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
