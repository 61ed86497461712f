package tools

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/toolbelt/utils"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var (
	// ErrToolNotFound is returned when no tool is registered with the requested name
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool is returned when two tools with the same name are registered
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrInvalidTool is returned on registration of nil tool or a tool with empty name
	ErrInvalidTool = errors.New("invalid tool")
)

// Registry is the read-only collection of tools,
// it is built once at startup and safe for concurrent use.
type Registry struct {
	tools    []ITool
	names    []string
	byName   map[string]ITool
	callback Callback
}

// RegistryOption allows to configure the Registry
type RegistryOption func(*Registry)

// WithCallback sets the callback for tool invocations
func WithCallback(callback Callback) RegistryOption {
	return func(r *Registry) {
		r.callback = callback
	}
}

// NewRegistry returns Registry with the tools in the provided order.
// The order is used for listing only.
func NewRegistry(list []ITool, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]ITool, len(list)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i, tool := range list {
		if isNil(tool) {
			return nil, errors.Mark(errors.Newf("tool at position %d is nil", i), ErrInvalidTool)
		}
		name := tool.Name()
		if name == "" {
			return nil, errors.Mark(errors.Newf("tool at position %d has empty name", i), ErrInvalidTool)
		}
		if _, ok := r.byName[name]; ok {
			return nil, errors.Mark(errors.Newf("tool %s is already registered", name), ErrDuplicateTool)
		}
		r.byName[name] = tool
		r.names = append(r.names, name)
		r.tools = append(r.tools, tool)
	}

	return r, nil
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.tools)
}

// Tools returns the registered tools in the registration order
func (r *Registry) Tools() []ITool {
	return append([]ITool(nil), r.tools...)
}

// Names returns the names of registered tools in the registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Get returns the tool by exact, case-sensitive name.
func (r *Registry) Get(name string) (ITool, error) {
	if tool, ok := r.byName[name]; ok {
		return tool, nil
	}
	return nil, errors.Mark(
		errors.Newf("tool with name %s not found, available tools: %s", name, strings.Join(r.names, ", ")),
		ErrToolNotFound)
}

// Manifest returns the definitions of the registered tools,
// in the registration order.
func (r *Registry) Manifest() []Definition {
	defs := make([]Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, GetDefinition(tool))
	}
	return defs
}

// Descriptions returns names and descriptions of the registered tools for a prompt
func (r *Registry) Descriptions() string {
	return GetDescriptions(r.tools...)
}

// Invoke dispatches the tool call by name and returns the encoded result.
// The returned error is ErrToolNotFound, or the validation error of the arguments,
// any other outcome is reported as the encoded failure result.
func (r *Registry) Invoke(ctx context.Context, name string, chatCtx chatmodel.ChatContext, args any) (string, error) {
	callID := uuid.NewString()

	tool, err := r.Get(name)
	if err != nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		if r.callback != nil {
			r.callback.OnToolNotFound(ctx, name)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"call_id", callID,
			"status", "tool_not_found",
			"tool_name", name,
			"available_tools", strings.Join(r.names, ", "),
		)
		return "", err
	}

	input := argsString(args)
	if r.callback != nil {
		r.callback.OnToolStart(ctx, tool, input)
	}

	started := time.Now()
	res, err := tool.Execute(ctx, chatCtx, args)
	metricskey.PerfToolCall.MeasureSince(started, name)

	if err != nil {
		metricskey.StatsToolCallsInvalidInput.IncrCounter(1, name)
		if r.callback != nil {
			r.callback.OnToolError(ctx, tool, input, err)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"call_id", callID,
			"status", "tool_call_rejected",
			"tool_name", name,
			"chat_id", chatmodel.ChatID(chatCtx),
			"err", err.Error(),
		)
		return "", err
	}

	res, output, err := encodeResult(name, res)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"call_id", callID,
			"status", "tool_result_encode_failed",
			"tool_name", name,
			"chat_id", chatmodel.ChatID(chatCtx),
			"err", err.Error(),
		)
	}

	if res.Succeeded() {
		metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	} else {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
	}
	if r.callback != nil {
		r.callback.OnToolEnd(ctx, tool, input, output)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"call_id", callID,
		"status", "tool_call_response",
		"tool_name", name,
		"chat_id", chatmodel.ChatID(chatCtx),
		"bot_id", chatmodel.BotID(chatCtx),
		"success", res.Succeeded(),
		"err", res.ErrorMessage(),
		"elapsed", time.Since(started).String(),
		"content_length", len(output),
	)

	return output, nil
}

func argsString(args any) string {
	switch v := args.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return utils.ToJSON(args)
}
