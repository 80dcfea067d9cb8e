package config

import (
	"strings"
	"time"
)

// MailGatewayConfig contains mail gateway configuration.
// All variables share the MAILGW_ prefix.
type MailGatewayConfig struct {
	// BaseURL is the mail gateway base URL.
	BaseURL string `env:"BASE_URL"`

	// Token is the bearer token sent to the gateway.
	Token string `env:"TOKEN"`

	// Timeout bounds a single gateway call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to mail gateway configuration values.
func (m *MailGatewayConfig) Sanitize() {
	m.BaseURL = strings.TrimSpace(m.BaseURL)
	if m.Timeout <= 0 {
		m.Timeout = 15 * time.Second
	}
}
