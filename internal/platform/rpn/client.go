// Package rpn integrates with the regional population registry that tracks
// which clinic a person is attached to.
package rpn

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Attachment describes a person's clinic attachment in the population registry.
type Attachment struct {
	IIN          string `json:"iin"`
	ClinicID     string `json:"clinic_id"`
	ClinicName   string `json:"clinic_name"`
	AttachedDate string `json:"attached_date"`
	Active       bool   `json:"active"`
}

// Client is an HTTP client for the population registry.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("X-API-Key", apiKey)

	return &Client{http: c, log: log}
}

// GetAttachment looks up the clinic attachment for the person with the given
// national identifier. Returns (nil, nil) when the person is not registered.
func (c *Client) GetAttachment(ctx context.Context, iin string) (*Attachment, error) {
	var out Attachment
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("iin", iin).
		SetResult(&out).
		Get("/api/v2/attachments/{iin}")
	if err != nil {
		return nil, fmt.Errorf("attachment lookup: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &out, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		c.log.Warn().Int("status", resp.StatusCode()).Str("iin", iin).Msg("attachment lookup failed")
		return nil, fmt.Errorf("attachment lookup returned status %d", resp.StatusCode())
	}
}
