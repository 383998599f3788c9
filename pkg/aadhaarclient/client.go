// Package aadhaarclient talks to the external Aadhaar verification registry.
// The registry is opaque to the core: one request, one of three outcomes
// (verified, denied, unavailable). Callers never retry automatically.
package aadhaarclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrDenied means the registry answered and rejected the id.
	ErrDenied = errors.New("aadhaar verification denied")
	// ErrUnavailable means the registry could not be reached or answered
	// with a server error. The caller may offer a manual retry.
	ErrUnavailable = errors.New("aadhaar verification service unavailable")
)

// Client performs a single verification attempt against the registry.
type Client interface {
	CheckID(ctx context.Context, aadhaar string) error
}

// HTTPClient is a client for the registry's REST API.
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewHTTPClient creates a registry client.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type checkRequest struct {
	AadhaarNumber string `json:"aadhaar_number"`
}

type checkResponse struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
}

// CheckID submits the id for verification. Exactly one attempt is made.
func (c *HTTPClient) CheckID(ctx context.Context, aadhaar string) error {
	payload, err := json.Marshal(checkRequest{AadhaarNumber: aadhaar})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/verify", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: registry returned status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return ErrDenied
	}

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !body.Verified {
		return ErrDenied
	}
	return nil
}

// Sandbox is an offline registry for development and tests. Every
// well-formed id verifies unless listed in Deny.
type Sandbox struct {
	Deny        map[string]bool
	Unavailable bool
	Delay       time.Duration
}

func (s *Sandbox) CheckID(ctx context.Context, aadhaar string) error {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(s.Delay):
		}
	}
	if s.Unavailable {
		return ErrUnavailable
	}
	if s.Deny[aadhaar] {
		return ErrDenied
	}
	return nil
}
