// Package poller implements the inbox polling loop that turns inbound mail
// into topic requests.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	"github.com/draftforge/draftforge/internal/observability/metrics"
	"github.com/draftforge/draftforge/internal/observability/statsd"
)

const (
	// DefaultInterval is how often the inbox is polled.
	DefaultInterval = 60 * time.Second
	// DefaultSubjectPrefix marks a message as a topic request. The topic is
	// the rest of the subject line.
	DefaultSubjectPrefix = "BLOG:"
)

// Submitter accepts parsed topic requests. The orchestrator satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req model.TopicRequest) (string, error)
}

// Options groups dependencies for the poller Runner.
type Options struct {
	Inbox          core.InboxSource   // Required: unread message source
	Submitter      Submitter          // Required: request intake
	Interval       time.Duration      // Optional: defaults to DefaultInterval
	SubjectPrefix  string             // Optional: defaults to DefaultSubjectPrefix
	AllowedSenders []string           // Optional: sender whitelist, empty allows all
	DefaultFormat  model.OutputFormat // Optional: defaults to blog_post
	Logger         *slog.Logger       // Optional: structured logger
	Metrics        statsd.Sink        // Optional: tick metrics
}

// Runner polls the inbox on a fixed interval, parses topic requests out of
// unread messages, and submits them. A message is marked consumed only after
// its request was accepted, so a crash between submit and mark can reprocess
// a message but never lose one.
type Runner struct {
	inbox          core.InboxSource
	submitter      Submitter
	interval       time.Duration
	subjectPrefix  string
	allowedSenders map[string]struct{}
	defaultFormat  model.OutputFormat
	logger         *slog.Logger
	metrics        statsd.Sink
}

// NewRunner validates options and constructs a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Inbox == nil {
		return nil, errors.New("InboxSource is required")
	}
	if opts.Submitter == nil {
		return nil, errors.New("Submitter is required")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	prefix := strings.TrimSpace(opts.SubjectPrefix)
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	format := opts.DefaultFormat
	if !format.Valid() {
		format = model.OutputFormatBlogPost
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var allowed map[string]struct{}
	if len(opts.AllowedSenders) > 0 {
		allowed = make(map[string]struct{}, len(opts.AllowedSenders))
		for _, s := range opts.AllowedSenders {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				allowed[s] = struct{}{}
			}
		}
	}

	return &Runner{
		inbox:          opts.Inbox,
		submitter:      opts.Submitter,
		interval:       interval,
		subjectPrefix:  prefix,
		allowedSenders: allowed,
		defaultFormat:  format,
		logger:         logger.With("component", "inbox_poller"),
		metrics:        opts.Metrics,
	}, nil
}

// Run polls immediately and then on every interval until the context ends.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting inbox poller", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "inbox poller stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick processes one poll cycle. Errors are logged and the loop keeps going;
// a bad tick must never kill the poller.
func (r *Runner) tick(ctx context.Context) {
	start := time.Now()

	messages, err := r.inbox.FetchUnread(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "fetch unread messages", "error", err)
		metrics.EmitPollTick(r.metrics, 0, time.Since(start), err)
		return
	}

	submitted := 0
	for _, msg := range messages {
		if r.processMessage(ctx, msg) {
			submitted++
		}
	}

	if len(messages) > 0 || submitted > 0 {
		r.logger.InfoContext(ctx, "poll cycle complete",
			"messages", len(messages), "submitted", submitted)
	}
	metrics.EmitPollTick(r.metrics, submitted, time.Since(start), nil)
}

// processMessage parses and submits one message, returning whether a request
// was submitted. Messages that can never become requests are consumed so
// they stop reappearing; a failed submit leaves the message unread for the
// next cycle.
func (r *Runner) processMessage(ctx context.Context, msg model.RawMessage) bool {
	req, reason, ok := r.parse(msg)
	if !ok {
		r.logger.DebugContext(ctx, "skipping message",
			"message_id", msg.ID, "reason", reason)
		r.consume(ctx, msg.ID)
		return false
	}

	jobID, err := r.submitter.Submit(ctx, req)
	if err != nil {
		r.logger.ErrorContext(ctx, "submit request",
			"message_id", msg.ID, "topic", req.Topic, "error", err)
		return false
	}

	r.logger.InfoContext(ctx, "request submitted",
		"message_id", msg.ID, "job_id", jobID, "topic", req.Topic)
	r.consume(ctx, msg.ID)
	return true
}

func (r *Runner) consume(ctx context.Context, messageID string) {
	if err := r.inbox.MarkConsumed(ctx, messageID); err != nil {
		// Left unread: the next cycle retries, and submit of a duplicate
		// just produces a second job for the same topic.
		r.logger.WarnContext(ctx, "mark message consumed",
			"message_id", messageID, "error", err)
	}
}

// parse extracts a topic request from a raw message. The skip reason is for
// logs only.
func (r *Runner) parse(msg model.RawMessage) (model.TopicRequest, string, bool) {
	if isSystemMessage(msg) {
		return model.TopicRequest{}, "system message", false
	}
	if !r.senderAllowed(msg.Sender) {
		return model.TopicRequest{}, "sender not allowed", false
	}

	subject := strings.TrimSpace(msg.Subject)
	if len(subject) < len(r.subjectPrefix) ||
		!strings.EqualFold(subject[:len(r.subjectPrefix)], r.subjectPrefix) {
		return model.TopicRequest{}, "subject prefix missing", false
	}
	topic := strings.TrimSpace(subject[len(r.subjectPrefix):])

	req := model.TopicRequest{
		Topic:       topic,
		Format:      r.defaultFormat,
		Destination: strings.TrimSpace(msg.Sender),
	}
	applyBodyOverrides(&req, msg.Body)
	return req, "", true
}

func (r *Runner) senderAllowed(sender string) bool {
	if r.allowedSenders == nil {
		return true
	}
	_, ok := r.allowedSenders[strings.ToLower(strings.TrimSpace(sender))]
	return ok
}

// applyBodyOverrides reads optional "keywords:" and "output:" lines from the
// message body. Unknown lines are ignored; a loose output value maps to the
// closest known format.
func applyBodyOverrides(req *model.TopicRequest, body string) {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "keywords:"):
			raw := strings.Split(line[len("keywords:"):], ",")
			keywords := make([]string, 0, len(raw))
			for _, k := range raw {
				if k = strings.TrimSpace(k); k != "" {
					keywords = append(keywords, k)
				}
			}
			if len(keywords) > 0 {
				req.Keywords = keywords
			}
		case strings.HasPrefix(lower, "output:"):
			req.Format = model.ParseOutputFormat(line[len("output:"):])
		}
	}
}

// systemSubjectMarkers and systemSenderMarkers identify auto-generated mail
// that must never become a topic request.
var systemSubjectMarkers = []string{
	"out of office",
	"automatic reply",
	"auto-reply",
	"delivery status notification",
	"undeliverable",
	"undelivered mail",
}

var systemSenderMarkers = []string{
	"mailer-daemon",
	"postmaster",
	"no-reply",
	"noreply",
	"donotreply",
}

func isSystemMessage(msg model.RawMessage) bool {
	subject := strings.ToLower(msg.Subject)
	for _, marker := range systemSubjectMarkers {
		if strings.Contains(subject, marker) {
			return true
		}
	}
	sender := strings.ToLower(msg.Sender)
	for _, marker := range systemSenderMarkers {
		if strings.Contains(sender, marker) {
			return true
		}
	}
	return false
}
