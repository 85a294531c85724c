package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request is a call relative to the base URL. Retried marks a request that
// has already been re-sent once after a token refresh.
type Request struct {
	Method  string
	Path    string
	Header  http.Header
	Body    []byte
	Retried bool
}

// NewRequest encodes body as JSON unless it is nil.
func NewRequest(method, path string, body any) (*Request, error) {
	r := &Request{Method: method, Path: path, Header: http.Header{}}
	if body == nil {
		return r, nil
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
	}
	r.Body = b
	r.Header.Set("Content-Type", "application/json")
	return r, nil
}

// Clone returns a deep copy that can be re-sent independently of r.
func (r *Request) Clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}

func (r *Request) String() string {
	return r.Method + " " + r.Path
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
