package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/blogclient/internal/logging"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second

	maxBodySize = 10 << 20
)

// Client sends one request and returns its response. *HTTPClient implements
// it; the session manager decorates it with the refresh policy.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// RequestTransform adjusts an outgoing request, e.g. by adding a header.
// Transforms run in the order they were configured.
type RequestTransform func(ctx context.Context, r *http.Request) error

// RoundTrip is what a ResponseHandler observes. Response is nil when Err is
// a connection error.
type RoundTrip struct {
	Request  *Request
	Response *Response
	Err      error
	Elapsed  time.Duration
}

type ResponseHandler func(ctx context.Context, rt RoundTrip)

type HTTPClient struct {
	baseURL    string
	http       *http.Client
	jar        *Jar
	transforms []RequestTransform
	handlers   []ResponseHandler
	log        logging.Logger
}

type Option func(*HTTPClient)

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithJar(j *Jar) Option {
	return func(c *HTTPClient) {
		c.jar = j
		c.http.Jar = j
	}
}

func WithRequestTransforms(t ...RequestTransform) Option {
	return func(c *HTTPClient) { c.transforms = append(c.transforms, t...) }
}

func WithResponseHandlers(h ...ResponseHandler) Option {
	return func(c *HTTPClient) { c.handlers = append(c.handlers, h...) }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		apiErr := connectionError(err)
		c.observe(ctx, RoundTrip{Request: req, Err: apiErr, Elapsed: time.Since(start)})
		return nil, apiErr
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		apiErr := connectionError(err)
		c.observe(ctx, RoundTrip{Request: req, Err: apiErr, Elapsed: time.Since(start)})
		return nil, apiErr
	}

	resp := &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}

	if c.jar != nil && len(httpResp.Header.Values("Set-Cookie")) > 0 {
		if err := c.jar.Save(ctx); err != nil {
			c.log.Warn(ctx, "failed to persist cookies", "error", err)
		}
	}

	if resp.Status < 200 || resp.Status > 299 {
		apiErr := newAPIError(resp.Status, body)
		c.observe(ctx, RoundTrip{Request: req, Response: resp, Err: apiErr, Elapsed: time.Since(start)})
		return nil, apiErr
	}

	c.observe(ctx, RoundTrip{Request: req, Response: resp, Elapsed: time.Since(start)})
	return resp, nil
}

func (c *HTTPClient) build(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+"/"+strings.TrimLeft(req.Path, "/"), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", req, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")

	for _, t := range c.transforms {
		if err := t(ctx, httpReq); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("prepare request %s: %w", req, err)
		}
	}
	return httpReq, nil
}

func (c *HTTPClient) observe(ctx context.Context, rt RoundTrip) {
	for _, h := range c.handlers {
		h(ctx, rt)
	}
}
