// Package authsvc talks to the external authorization service that owns
// identity and permission decisions for the registry.
package authsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client is an HTTP client for the authorization service.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: c, log: log}
}

type permissionRequest struct {
	Subject string `json:"subject"`
	Method  string `json:"method"`
	Path    string `json:"path"`
}

type permissionResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CheckPermission asks the authorization service whether subject may perform
// method on path.
func (c *Client) CheckPermission(ctx context.Context, subject, method, path string) (bool, error) {
	var out permissionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(permissionRequest{Subject: subject, Method: method, Path: path}).
		SetResult(&out).
		Post("/api/v1/permissions/check")
	if err != nil {
		return false, fmt.Errorf("permission check request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("permission check returned status %d", resp.StatusCode())
	}
	if !out.Allowed {
		c.log.Debug().Str("subject", subject).Str("path", path).Str("reason", out.Reason).
			Msg("permission denied")
	}
	return out.Allowed, nil
}
