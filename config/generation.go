package config

import (
	"strings"
	"time"
)

// GenerationConfig contains generation gateway configuration.
// All variables share the GENERATION_ prefix.
type GenerationConfig struct {
	// BaseURL is the generation gateway base URL.
	BaseURL string `env:"BASE_URL"`

	// APIKey is the bearer token sent to the gateway.
	APIKey string `env:"API_KEY"`

	// Timeout bounds a single gateway call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`

	// TextPath is the JMESPath expression that extracts the generated text
	// from the gateway's provider-shaped response envelope.
	TextPath string `env:"TEXT_PATH" envDefault:"candidates[0].content.parts[0].text"`

	// RPS throttles gateway calls across all jobs.
	RPS float64 `env:"RPS" envDefault:"2"`

	// Burst is the rate limiter burst size.
	Burst int `env:"BURST" envDefault:"1"`
}

// Sanitize applies guardrails to generation configuration values.
func (g *GenerationConfig) Sanitize() {
	g.BaseURL = strings.TrimSpace(g.BaseURL)
	if g.Timeout <= 0 {
		g.Timeout = 60 * time.Second
	}
	if g.RPS <= 0 {
		g.RPS = 2
	}
	if g.Burst < 1 {
		g.Burst = 1
	}
}
