// Package client talks to a running prediction server.
package client

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"loanscore/internal/server"
	"loanscore/internal/storage"
)

type Client struct {
	base string
	rest *resty.Client
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Body       server.ErrorResponse
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("loanscore: status %d: %s", e.StatusCode, e.Body.Error)
	if e.Body.Field != "" {
		msg += fmt.Sprintf(" (field %s", e.Body.Field)
		if e.Body.Value != "" {
			msg += fmt.Sprintf(", value %q", e.Body.Value)
		}
		msg += ")"
	}
	return msg
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetHeader("Content-Type", "application/json")
	return &Client{base: base, rest: r}
}

// Predict posts one applicant or a slice of applicants. A non-empty
// requestID is sent as the X-Request-ID header.
func (c *Client) Predict(applicants any, requestID string) (*server.PredictionResponse, error) {
	var out server.PredictionResponse
	req := c.rest.R().SetBody(applicants)
	if requestID != "" {
		req.SetHeader(server.RequestIDHeader, requestID)
	}
	if err := c.do(req, &out, resty.MethodPost, "/predict"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health() (*server.HealthResponse, error) {
	var out server.HealthResponse
	if err := c.do(c.rest.R(), &out, resty.MethodGet, "/health"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ModelInfo() (*server.ModelInfoResponse, error) {
	var out server.ModelInfoResponse
	if err := c.do(c.rest.R(), &out, resty.MethodGet, "/model/info"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recent lists the newest n logged predictions; n <= 0 uses the server's
// default.
func (c *Client) Recent(n int) ([]storage.PredictionRecord, error) {
	req := c.rest.R()
	if n > 0 {
		req.SetQueryParam("limit", strconv.Itoa(n))
	}
	var out []storage.PredictionRecord
	if err := c.do(req, &out, resty.MethodGet, "/predictions"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(req *resty.Request, result any, method, path string) error {
	apiErr := &APIError{}
	resp, err := req.
		SetResult(result).
		SetError(&apiErr.Body).
		Execute(method, c.base+path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Body.Error == "" {
			apiErr.Body.Error = resp.String()
		}
		return apiErr
	}
	return nil
}
