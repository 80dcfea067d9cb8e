package model

import (
	"errors"
	"fmt"
	"strings"
)

// OutputFormat tags the kind of long-form content a request asks for.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type OutputFormat string

const (
	// OutputFormatBlogPost is the default long-form article format.
	OutputFormatBlogPost OutputFormat = "blog_post"
	// OutputFormatNewsletter is a shorter, email-friendly format.
	OutputFormatNewsletter OutputFormat = "newsletter"
	// OutputFormatSummary is a condensed digest of the research.
	OutputFormatSummary OutputFormat = "summary"
)

// Valid returns true if the OutputFormat is one of the defined formats.
func (f OutputFormat) Valid() bool {
	return f == OutputFormatBlogPost || f == OutputFormatNewsletter || f == OutputFormatSummary
}

// UnmarshalText implements encoding.TextUnmarshaler so formats parse from env and mail bodies.
func (f *OutputFormat) UnmarshalText(text []byte) error {
	v := OutputFormat(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid OutputFormat: %q", string(text))
	}
	*f = v
	return nil
}

// ParseOutputFormat maps loose user input to a format, defaulting to blog_post.
func ParseOutputFormat(s string) OutputFormat {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.ReplaceAll(v, " ", "_")
	switch OutputFormat(v) {
	case OutputFormatNewsletter:
		return OutputFormatNewsletter
	case OutputFormatSummary:
		return OutputFormatSummary
	default:
		return OutputFormatBlogPost
	}
}

// TopicRequest is the immutable input that seeds a job.
type TopicRequest struct {
	Topic       string       `json:"topic"`
	Keywords    []string     `json:"keywords,omitempty"`
	Format      OutputFormat `json:"format,omitempty"`
	Destination string       `json:"destination"`
}

// Validate checks intake-level requirements. An empty topic is deliberately
// NOT an intake error: such jobs are created and rejected by the guardrail so
// the caller can observe the rejection through status.
func (r TopicRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return errors.New("destination is required")
	}
	if r.Format != "" && !r.Format.Valid() {
		return fmt.Errorf("invalid output format %q", r.Format)
	}
	return nil
}

// Clone returns a copy with its own keyword slice.
func (r TopicRequest) Clone() TopicRequest {
	cp := r
	if len(r.Keywords) > 0 {
		cp.Keywords = make([]string, len(r.Keywords))
		copy(cp.Keywords, r.Keywords)
	}
	return cp
}
