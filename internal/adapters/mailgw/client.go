// Package mailgw implements the HTTP client for the mail gateway, the
// service that fronts the actual mailbox. It provides both the inbox source
// consumed by the poller and the delivery sink used by the pipeline.
package mailgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
)

// DefaultTimeout bounds a single gateway call.
const DefaultTimeout = 15 * time.Second

const maxResponseBodyBytes = 4 << 20 // 4 MiB, inbox pages carry full bodies

// Options groups configuration for the mail gateway Client.
type Options struct {
	BaseURL    string        // Required: gateway base URL
	Token      string        // Optional: bearer token
	Timeout    time.Duration // Optional: per-call timeout, defaults to DefaultTimeout
	HTTPClient *http.Client  // Optional: defaults to http.DefaultClient
	Logger     *slog.Logger  // Optional: structured logger
}

// Client talks to the mail gateway over JSON/HTTP.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

var (
	_ core.InboxSource  = (*Client)(nil)
	_ core.DeliverySink = (*Client)(nil)
)

// NewClient validates options and constructs a Client.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("mail gateway base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid mail gateway base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		token:   opts.Token,
		timeout: timeout,
		http:    httpClient,
		logger:  logger.With("component", "mailgw_client"),
	}, nil
}

// FetchUnread returns the unread messages currently in the inbox.
func (c *Client) FetchUnread(ctx context.Context) ([]model.RawMessage, error) {
	var page struct {
		Messages []model.RawMessage `json:"messages"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/messages?unread=true", nil, &page); err != nil {
		return nil, fmt.Errorf("fetch unread messages: %w", err)
	}
	return page.Messages, nil
}

// MarkConsumed marks one message as read so later polls skip it.
func (c *Client) MarkConsumed(ctx context.Context, messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return errors.New("message id is required")
	}
	path := "/v1/messages/" + url.PathEscape(messageID) + "/consume"
	if err := c.call(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("mark message %s consumed: %w", messageID, err)
	}
	return nil
}

// Deliver sends a finished artifact to its destination address.
func (c *Client) Deliver(ctx context.Context, destination string, delivery core.Delivery) error {
	if strings.TrimSpace(destination) == "" {
		return errors.New("destination is required")
	}

	payload := struct {
		To      string         `json:"to"`
		Subject string         `json:"subject"`
		Body    string         `json:"body"`
		Sources []model.Source `json:"sources,omitempty"`
	}{
		To:      destination,
		Subject: delivery.Subject,
		Body:    delivery.Body,
		Sources: delivery.Sources,
	}
	if err := c.call(ctx, http.MethodPost, "/v1/outbound", payload, nil); err != nil {
		return fmt.Errorf("deliver to %s: %w", destination, err)
	}
	c.logger.InfoContext(ctx, "delivery sent", "destination", destination, "subject", delivery.Subject)
	return nil
}

// call performs one JSON round trip against the gateway. A nil out skips
// response decoding.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	body, readErr := readResponseBody(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("read response: %w", errors.Join(readErr, closeErr))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, snippet(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readResponseBody(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	limited := io.LimitReader(body, maxResponseBodyBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseBodyBytes {
		data = data[:maxResponseBodyBytes]
	}
	return data, nil
}

func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
