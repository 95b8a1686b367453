// Package remote performs deadline-bounded HTTP calls to the other library
// services, routed through each dependency's circuit breaker. Outcomes are
// classified explicitly: transport failures, deadline expiry and 5xx answers
// count against the breaker and surface as Unavailable, while a well-formed
// 4xx answer is a semantic outcome for the caller and leaves the breaker
// untouched.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/samdani91/Smart-Library-System/breaker"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Availability operation values accepted by the book service.
const (
	OpIncrement = "increment"
	OpDecrement = "decrement"
)

// caller issues calls to one named dependency. The typed clients in this
// package wrap it with per-endpoint methods.
type caller struct {
	name     string
	baseURL  string
	http     *http.Client
	breakers *breaker.Registry
	timeout  time.Duration
	metrics  *Metrics
}

func newCaller(name, baseURL string, timeout time.Duration, breakers *breaker.Registry, httpClient *http.Client, metrics *Metrics) *caller {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &caller{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		breakers: breakers,
		timeout:  timeout,
		metrics:  metrics,
	}
}

// reply is a well-formed answer from the dependency, success or semantic
// error alike.
type reply struct {
	status int
	body   []byte
}

func (c *caller) get(ctx context.Context, operation, path string, out any) error {
	return c.do(ctx, operation, http.MethodGet, path, nil, out)
}

func (c *caller) patch(ctx context.Context, operation, path string, body, out any) error {
	return c.do(ctx, operation, http.MethodPatch, path, body, out)
}

func (c *caller) do(ctx context.Context, operation, method, path string, body, out any) error {
	start := time.Now()

	result, err := c.breakers.Execute(c.name, func() (any, error) {
		return c.send(ctx, method, path, body)
	})

	if err != nil {
		c.observe(operation, "unavailable", start)

		if errors.Is(err, breaker.ErrOpen) {
			return &CallError{
				Kind:       KindUnavailable,
				Dependency: c.name,
				Operation:  operation,
				Message:    "circuit breaker is open",
				Cause:      err,
			}
		}

		return &CallError{
			Kind:       KindUnavailable,
			Dependency: c.name,
			Operation:  operation,
			Message:    "request failed",
			Cause:      err,
		}
	}

	rep := result.(reply)

	switch {
	case rep.status == http.StatusNotFound:
		c.observe(operation, "not_found", start)
		return &CallError{
			Kind:       KindNotFound,
			Dependency: c.name,
			Operation:  operation,
			Message:    serverMessage(rep.body),
		}
	case rep.status >= http.StatusBadRequest:
		c.observe(operation, "validation", start)
		return &CallError{
			Kind:       KindValidation,
			Dependency: c.name,
			Operation:  operation,
			Message:    serverMessage(rep.body),
		}
	}

	if out != nil {
		if err := codec.Unmarshal(rep.body, out); err != nil {
			c.observe(operation, "decode_error", start)
			return &CallError{
				Kind:       KindUnavailable,
				Dependency: c.name,
				Operation:  operation,
				Message:    "malformed response body",
				Cause:      err,
			}
		}
	}

	c.observe(operation, "success", start)

	return nil
}

// send performs the actual HTTP exchange. It runs inside the breaker: any
// error it returns counts as a breaker failure.
func (c *caller) send(ctx context.Context, method, path string, body any) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload io.Reader
	if body != nil {
		b, err := codec.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	return reply{status: resp.StatusCode, body: b}, nil
}

func (c *caller) observe(operation, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.record(c.name, operation, outcome, time.Since(start))
	}
}

func serverMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
	}
	if err := codec.Unmarshal(body, &m); err == nil && m.Message != "" {
		return m.Message
	}
	return "request rejected"
}
