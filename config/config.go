package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - services.go: Service mode, orchestrator, pipeline, inbox poller,
//     and sweeper configuration
//   - generation.go: Generation gateway configuration
//   - mailgw.go: Mail gateway configuration
//   - database.go: Database and Redis configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging etc.)
	// Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Services is a comma-delimited list of enabled services.
	// Valid values: orchestrator, sweeper
	Services string `env:"SERVICES" envDefault:"orchestrator"`

	// Orchestrator configuration
	Orchestrator OrchestratorConfig

	// Pipeline (guardrail + review loop) configuration
	Pipeline PipelineConfig

	// Inbox poller configuration
	Inbox InboxConfig

	// Sweeper configuration
	Sweeper SweeperConfig

	// Generation gateway configuration
	Generation GenerationConfig `envPrefix:"GENERATION_"`

	// Mail gateway configuration
	MailGateway MailGatewayConfig `envPrefix:"MAILGW_"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Orchestrator.Sanitize()
	c.Pipeline.Sanitize()
	c.Inbox.Sanitize()
	c.Sweeper.Sanitize()
	c.Generation.Sanitize()
	c.MailGateway.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks the APP_ENV environment variable as a fallback.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsOrchestratorEnabled returns true if the orchestrator service is enabled.
func (c *AppConfig) IsOrchestratorEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeOrchestrator]
}

// IsSweeperEnabled returns true if the sweeper service is enabled.
func (c *AppConfig) IsSweeperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeSweeper]
}
