// Package toolset builds the registry of the available tools.
package toolset

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/config"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/toolbelt/tools/exchangerate"
	"github.com/effective-security/toolbelt/tools/tavily"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "toolset")

// Names of the available tools, in the listing order
var Names = []string{
	tavily.ToolName,
	exchangerate.ToolName,
}

// Factory creates a tool from the configuration
type Factory func(cfg *config.Config) (tools.ITool, error)

// Factories is the registry of the tool factories by name
var Factories = map[string]Factory{
	tavily.ToolName:       newWebSearch,
	exchangerate.ToolName: newExchangeRate,
}

// New returns the registry of the tools enabled by cfg.
// The order of the tools follows cfg.Tools, or Names if cfg.Tools is empty.
func New(cfg *config.Config, opts ...tools.RegistryOption) (*tools.Registry, error) {
	if cfg == nil {
		cfg = new(config.Config)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	names := cfg.Tools
	if len(names) == 0 {
		names = Names
	}

	list := make([]tools.ITool, 0, len(names))
	for _, name := range names {
		factory, ok := Factories[name]
		if !ok {
			return nil, errors.Mark(errors.Newf("unknown tool: %s", name), tools.ErrInvalidTool)
		}
		tool, err := factory(cfg)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to create tool: %s", name)
		}
		list = append(list, tool)
	}

	r, err := tools.NewRegistry(list, opts...)
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.INFO,
		"status", "registry_created",
		"tools", r.Names(),
	)
	return r, nil
}

// MustNew returns the registry, or panics on configuration error
func MustNew(cfg *config.Config, opts ...tools.RegistryOption) *tools.Registry {
	r, err := New(cfg, opts...)
	if err != nil {
		panic(errors.WithMessage(err, "failed to create registry"))
	}
	return r
}

func newExchangeRate(cfg *config.Config) (tools.ITool, error) {
	timeout, err := cfg.ExchangeRate.GetTimeout()
	if err != nil {
		return nil, err
	}
	return exchangerate.New(
		exchangerate.WithBaseURL(cfg.ExchangeRate.BaseURL),
		exchangerate.WithAPIKey(cfg.ExchangeRate.APIKey),
		exchangerate.WithTimeout(timeout),
	)
}

func newWebSearch(cfg *config.Config) (tools.ITool, error) {
	timeout, err := cfg.WebSearch.GetTimeout()
	if err != nil {
		return nil, err
	}
	return tavily.New(
		tavily.WithBaseURL(cfg.WebSearch.BaseURL),
		tavily.WithAPIKey(cfg.WebSearch.APIKey),
		tavily.WithTimeout(timeout),
	)
}
