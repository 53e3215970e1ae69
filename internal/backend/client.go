// Package backend talks to the external hydration data service that owns
// users, intake records and urination records.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"hydrolog/internal/hydration"
)

const (
	defaultWaterLimit = 200
	defaultUrineLimit = 100
)

// StatusError is a non-2xx answer from the backend. It unwraps to
// hydration.ErrUpstreamUnavailable so read paths can treat it uniformly,
// while write proxies can still pass Code and Body through.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Code)
}

func (e *StatusError) Unwrap() error { return hydration.ErrUpstreamUnavailable }

// Client is a fasthttp client for the backend service. It implements
// hydration.Upstream.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
	loc     *time.Location

	// WaterLimit and UrineLimit bound the list fetches used for reports.
	WaterLimit int
	UrineLimit int
}

// New returns a client for baseURL with a per-request timeout. Zone-less
// backend timestamps are read as wall-clock time in loc; nil means UTC.
func New(baseURL string, timeout time.Duration, loc *time.Location) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name:         "hydrolog",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout:    timeout,
		loc:        loc,
		WaterLimit: defaultWaterLimit,
		UrineLimit: defaultUrineLimit,
	}
}

// do sends one request and returns the response body of a 2xx answer.
// fasthttp has no context support, so the context deadline (if sooner than
// the client timeout) becomes the request deadline.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	op := method + " " + path
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		log.Printf("backend %s failed: %v", op, err)
		if errors.Is(err, fasthttp.ErrTimeout) {
			// Callers only see context errors, so a timeout reads as a missed deadline.
			return nil, fmt.Errorf("%w: %s: %w: %w", hydration.ErrUpstreamUnavailable, op, err, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("%w: %s: %w", hydration.ErrUpstreamUnavailable, op, err)
	}

	code := resp.StatusCode()
	if code < 200 || code >= 300 {
		body := string(resp.Body())
		log.Printf("backend %s -> %d: %s", op, code, body)
		return nil, &StatusError{Op: op, Code: code, Body: body}
	}

	// resp is released on return, so hand back a copy.
	return append([]byte(nil), resp.Body()...), nil
}
