package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/draftforge/draftforge/internal/domain/pipeline"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeOrchestrator runs the job orchestrator with the inbox poller.
	ServiceModeOrchestrator ServiceMode = "orchestrator"
	// ServiceModeSweeper runs the terminal job retention sweeper.
	ServiceModeSweeper ServiceMode = "sweeper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeOrchestrator,
		ServiceModeSweeper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns
// the enabled services. It validates that all service names are valid and
// returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeOrchestrator, ServiceModeSweeper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: orchestrator, sweeper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// OrchestratorConfig contains orchestrator service configuration.
type OrchestratorConfig struct {
	// MaxConcurrent is the number of jobs allowed to run pipeline stages
	// at the same time. Further jobs wait for a free slot.
	MaxConcurrent int `env:"ORCHESTRATOR_MAX_CONCURRENT" envDefault:"4"`

	// PollOnStart controls whether inbox polling starts with the service.
	PollOnStart bool `env:"ORCHESTRATOR_POLL_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to orchestrator configuration values.
func (o *OrchestratorConfig) Sanitize() {
	if o.MaxConcurrent < 1 {
		o.MaxConcurrent = 1
	}
}

// PipelineConfig contains guardrail and review loop configuration.
type PipelineConfig struct {
	// QualityThreshold is the minimum review score that approves an artifact.
	QualityThreshold int `env:"QUALITY_THRESHOLD" envDefault:"90"`

	// MaxIterations is the maximum number of refinement iterations before
	// the loop exits with the best artifact seen.
	MaxIterations int `env:"MAX_REFINEMENT_ITERATIONS" envDefault:"5"`

	// CapState is the terminal-bound state a job enters when the iteration
	// cap is reached without meeting the quality threshold.
	// Valid values: approved, partial
	CapState string `env:"PIPELINE_CAP_STATE" envDefault:"approved"`

	// MinTopicLength and MaxTopicLength bound accepted topic sizes.
	MinTopicLength int `env:"GUARDRAIL_MIN_TOPIC_LENGTH" envDefault:"3"`
	MaxTopicLength int `env:"GUARDRAIL_MAX_TOPIC_LENGTH" envDefault:"500"`
}

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.QualityThreshold < 0 {
		p.QualityThreshold = 0
	}
	if p.QualityThreshold > 100 {
		p.QualityThreshold = 100
	}
	if p.MaxIterations < 1 {
		p.MaxIterations = 1
	}
	if !pipeline.CapState(p.CapState).Valid() {
		p.CapState = string(pipeline.CapStateApproved)
	}
	if p.MinTopicLength < 1 {
		p.MinTopicLength = 1
	}
	if p.MaxTopicLength < p.MinTopicLength {
		p.MaxTopicLength = p.MinTopicLength
	}
}

// ParsedCapState returns the CapState value after sanitisation.
func (p *PipelineConfig) ParsedCapState() pipeline.CapState {
	return pipeline.CapState(p.CapState)
}

// InboxConfig contains inbox poller configuration.
type InboxConfig struct {
	// CheckInterval is how often the inbox is polled for new messages.
	CheckInterval time.Duration `env:"INBOX_CHECK_INTERVAL" envDefault:"60s"`

	// SubjectPrefix marks a message as a topic request.
	SubjectPrefix string `env:"INBOX_SUBJECT_PREFIX" envDefault:"BLOG:"`

	// AllowedSenders is an optional sender whitelist. Empty allows all.
	AllowedSenders []string `env:"INBOX_ALLOWED_SENDERS" envSeparator:","`

	// DefaultFormat is the output format used when a message does not
	// specify one. Valid values: blog_post, newsletter, summary
	DefaultFormat string `env:"INBOX_DEFAULT_FORMAT" envDefault:"blog_post"`
}

// Sanitize applies guardrails to inbox configuration values.
func (i *InboxConfig) Sanitize() {
	if i.CheckInterval < time.Second {
		i.CheckInterval = time.Second
	}
	i.SubjectPrefix = strings.TrimSpace(i.SubjectPrefix)
	if i.SubjectPrefix == "" {
		i.SubjectPrefix = "BLOG:"
	}
}

// SweeperConfig contains retention sweeper configuration.
type SweeperConfig struct {
	// Interval is the sweeper tick interval.
	Interval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"1h"`

	// Retention is how long terminal jobs stay queryable after their last
	// update. The same window bounds the Redis snapshot TTL.
	Retention time.Duration `env:"JOB_RETENTION" envDefault:"24h"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	if s.Interval < time.Minute {
		s.Interval = time.Minute
	}
	if s.Retention < time.Hour {
		s.Retention = time.Hour
	}
}
