// Package generation implements the HTTP client for the content generation
// gateway. It backs both the pipeline stage collaborator and the guardrail's
// semantic moderation stage.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/time/rate"

	"github.com/draftforge/draftforge/internal/domain/model"
)

const (
	// DefaultTimeout bounds a single gateway call.
	DefaultTimeout = 60 * time.Second
	// DefaultTextPath extracts the generated text from the gateway's
	// provider-shaped response envelope.
	DefaultTextPath = "candidates[0].content.parts[0].text"
	// DefaultRequestsPerSecond throttles gateway calls across all jobs.
	DefaultRequestsPerSecond = 2

	maxResponseBodyBytes = 1 << 20 // 1 MiB
)

// Options groups configuration for the generation Client.
type Options struct {
	BaseURL    string        // Required: gateway base URL
	APIKey     string        // Optional: bearer token
	Timeout    time.Duration // Optional: per-call timeout, defaults to DefaultTimeout
	TextPath   string        // Optional: JMESPath to the generated text
	RPS        float64       // Optional: requests per second, defaults to DefaultRequestsPerSecond
	Burst      int           // Optional: limiter burst, defaults to 1
	HTTPClient *http.Client  // Optional: defaults to http.DefaultClient
	Logger     *slog.Logger  // Optional: structured logger
}

// Client calls the generation gateway. Each pipeline stage maps to one
// endpoint; responses carry the generated text inside a provider envelope
// that the configured JMESPath expression unwraps. Structured stages
// (research, review, moderate) expect that text to itself be JSON.
type Client struct {
	baseURL  string
	apiKey   string
	timeout  time.Duration
	textPath jmespath.JMESPath
	limiter  *rate.Limiter
	http     *http.Client
	logger   *slog.Logger
}

// NewClient validates options and constructs a Client.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("generation base URL is required")
	}

	textExpr := opts.TextPath
	if strings.TrimSpace(textExpr) == "" {
		textExpr = DefaultTextPath
	}
	textPath, err := jmespath.Compile(textExpr)
	if err != nil {
		return nil, fmt.Errorf("compile text path %q: %w", textExpr, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
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
		baseURL:  baseURL,
		apiKey:   opts.APIKey,
		timeout:  timeout,
		textPath: textPath,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		http:     httpClient,
		logger:   logger.With("component", "generation_client"),
	}, nil
}

// Research gathers sources and key points for a topic.
func (c *Client) Research(
	ctx context.Context,
	topic string,
	keywords []string,
) (*model.ResearchData, error) {
	text, err := c.generate(ctx, "research", map[string]any{
		"topic":    topic,
		"keywords": keywords,
	})
	if err != nil {
		return nil, err
	}

	var research model.ResearchData
	if err := decodeStructured(text, &research); err != nil {
		return nil, fmt.Errorf("decode research response: %w", err)
	}
	if research.Topic == "" {
		research.Topic = topic
	}
	return &research, nil
}

// Draft produces the first artifact text from research data.
func (c *Client) Draft(
	ctx context.Context,
	research *model.ResearchData,
	format model.OutputFormat,
) (string, error) {
	text, err := c.generate(ctx, "draft", map[string]any{
		"research": research,
		"format":   string(format),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gateway returned an empty draft")
	}
	return text, nil
}

// Review scores an artifact in [0,100] with actionable feedback.
func (c *Client) Review(ctx context.Context, artifact string) (*model.ReviewResult, error) {
	text, err := c.generate(ctx, "review", map[string]any{
		"artifact": artifact,
	})
	if err != nil {
		return nil, err
	}

	var review model.ReviewResult
	if err := decodeStructured(text, &review); err != nil {
		return nil, fmt.Errorf("decode review response: %w", err)
	}
	if review.Score < 0 {
		review.Score = 0
	}
	if review.Score > 100 {
		review.Score = 100
	}
	return &review, nil
}

// Refine rewrites an artifact according to review feedback.
func (c *Client) Refine(
	ctx context.Context,
	artifact, feedback string,
	format model.OutputFormat,
) (string, error) {
	text, err := c.generate(ctx, "refine", map[string]any{
		"artifact": artifact,
		"feedback": feedback,
		"format":   string(format),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gateway returned an empty refinement")
	}
	return text, nil
}

// Moderate asks for a semantic safety judgment on a topic. Callers treat any
// returned error as a fail-closed rejection.
func (c *Client) Moderate(ctx context.Context, topic string) (*model.SafetyJudgment, error) {
	text, err := c.generate(ctx, "moderate", map[string]any{
		"topic": topic,
	})
	if err != nil {
		return nil, err
	}

	var judgment model.SafetyJudgment
	if err := decodeStructured(text, &judgment); err != nil {
		return nil, fmt.Errorf("decode moderation response: %w", err)
	}
	return &judgment, nil
}

// generate performs one rate-limited POST to the named task endpoint and
// returns the text the configured JMESPath extracts from the response.
func (c *Client) generate(ctx context.Context, task string, payload map[string]any) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", task, err)
	}

	url := c.baseURL + "/v1/" + task
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", task, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send %s request: %w", task, err)
	}

	body, readErr := readResponseBody(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return "", fmt.Errorf("read %s response: %w", task, errors.Join(readErr, closeErr))
	}

	c.logger.DebugContext(ctx, "gateway call complete",
		"task", task, "status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s request failed: status %d: %s",
			task, resp.StatusCode, snippet(body))
	}

	var envelope any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode %s envelope: %w", task, err)
	}
	extracted, err := c.textPath.Search(envelope)
	if err != nil {
		return "", fmt.Errorf("extract %s text: %w", task, err)
	}
	text, ok := extracted.(string)
	if !ok || text == "" {
		return "", fmt.Errorf("%s response has no text at extraction path", task)
	}
	return text, nil
}

// decodeStructured unmarshals a structured stage's text payload, tolerating
// providers that wrap JSON answers in markdown code fences.
func decodeStructured(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return json.Unmarshal([]byte(trimmed), out)
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
