package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsToolCallsSucceeded is base for counter metric for tool calls with success result
	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	// StatsToolCallsFailed is base for counter metric for tool calls with failure result
	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsInvalidInput = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_invalid_input",
		Help:         "stats_tool_calls_invalid_input provides total tool calls rejected by input validation",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	// StatsToolUpstreamRequests is base for counter metric for requests sent by tools
	// to upstream services, `status` is HTTP status code or `error`
	StatsToolUpstreamRequests = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_upstream_requests",
		Help:         "stats_tool_upstream_requests provides total requests sent by tools to upstream services",
		RequiredTags: []string{"tool", "status"},
	}
)

// Perf
var (
	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfToolUpstreamRequest = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_upstream_request",
		Help:         "perf_tool_upstream_request provides duration of upstream request sent by a tool",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfToolCall,
	&PerfToolUpstreamRequest,
	&StatsToolCallsFailed,
	&StatsToolCallsInvalidInput,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
	&StatsToolUpstreamRequests,
}
