// Package config provides the configuration of the tools.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
)

// Config of the tools
type Config struct {
	// ExchangeRate specifies the currency conversion tool settings
	ExchangeRate ServiceConfig `json:"exchange_rate" yaml:"exchange_rate"`
	// WebSearch specifies the web search tool settings
	WebSearch ServiceConfig `json:"web_search" yaml:"web_search"`
	// Tools specifies the names of enabled tools, in the listing order.
	// If empty, then all tools are enabled.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// ServiceConfig specifies the upstream service of a tool
type ServiceConfig struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// APIKey is the service API key, if empty then the tool's
	// environment variable is used
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Timeout specifies the request timeout, e.g. `5s`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GetTimeout returns the parsed timeout, or zero if not specified
func (c *ServiceConfig) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout: %q", c.Timeout)
	}
	if d < 0 {
		return 0, errors.Newf("invalid timeout: %q", c.Timeout)
	}
	return d, nil
}

// Validate returns error if the config is invalid
func (c *Config) Validate() error {
	if _, err := c.ExchangeRate.GetTimeout(); err != nil {
		return errors.WithMessage(err, "exchange_rate")
	}
	if _, err := c.WebSearch.GetTimeout(); err != nil {
		return errors.WithMessage(err, "web_search")
	}
	seen := map[string]bool{}
	for _, name := range c.Tools {
		if name == "" {
			return errors.New("tools: empty tool name")
		}
		if seen[name] {
			return errors.Newf("tools: duplicate tool name: %s", name)
		}
		seen[name] = true
	}
	return nil
}

// Load returns the config from file,
// the environment variables are expanded.
// If file is empty, then the default config is returned.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load config: %s", file)
	}
	if err = cfg.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid config: %s", file)
	}
	return cfg, nil
}
