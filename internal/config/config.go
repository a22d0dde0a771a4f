// Package config loads the backend selection and credentials from the
// environment. The protocol backend is chosen once at startup and never
// mixed at runtime.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Protocol names for BackendProtocol.
const (
	ProtocolJMAP   = "jmap"
	ProtocolCalDAV = "caldav"
)

// Config holds everything read from the environment.
type Config struct {
	// BackendProtocol selects the wire protocol, "jmap" or "caldav".
	BackendProtocol string `env:"FASTMAIL_PROTOCOL" envDefault:"jmap"`

	// JMAP settings.
	APIToken   string `env:"FASTMAIL_API_TOKEN"`
	SessionURL string `env:"FASTMAIL_SESSION_URL"`

	// CalDAV settings. The password is an app password.
	CalDAVEndpoint string `env:"FASTMAIL_CALDAV_ENDPOINT"`
	CalDAVUsername string `env:"FASTMAIL_CALDAV_USERNAME"`
	CalDAVPassword string `env:"FASTMAIL_CALDAV_PASSWORD"`
}

// Load parses and validates the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has the credentials it needs.
func (c *Config) Validate() error {
	switch c.BackendProtocol {
	case ProtocolJMAP:
		if c.APIToken == "" {
			return fmt.Errorf("FASTMAIL_API_TOKEN is required for the jmap backend")
		}
	case ProtocolCalDAV:
		if c.CalDAVUsername == "" || c.CalDAVPassword == "" {
			return fmt.Errorf("FASTMAIL_CALDAV_USERNAME and FASTMAIL_CALDAV_PASSWORD are required for the caldav backend")
		}
	default:
		return fmt.Errorf("unknown protocol %q, want %q or %q", c.BackendProtocol, ProtocolJMAP, ProtocolCalDAV)
	}
	return nil
}
