package tools

import (
	"context"

	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/utils"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go  -package mocktools

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the function, to be used in the prompt.
	Parameters() any

	// Execute validates the raw arguments and executes the tool.
	// The error is returned only when the arguments fail validation,
	// every execution outcome is reported by the returned Result.
	Execute(ctx context.Context, chatCtx chatmodel.ChatContext, args any) (Result, error)
}

// Tool is the typed contract implemented once per concrete tool.
type Tool[I any, O Result] interface {
	ITool
	// Validate converts the raw arguments to the typed input,
	// the returned input is normalized and satisfies the input schema.
	Validate(args any) (*I, error)
	// Run executes the tool with validated input,
	// every failure must be reported as a failure result.
	Run(ctx context.Context, chatCtx chatmodel.ChatContext, in *I) O
	// Failure returns the failure result for err.
	Failure(err error) O
}

type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, input string)
	OnToolEnd(ctx context.Context, tool ITool, input string, output string)
	OnToolError(ctx context.Context, tool ITool, input string, err error)
	OnToolNotFound(ctx context.Context, name string)
}

// Definition describes the tool in the manifest provided to a model.
type Definition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Parameters  any    `json:"parameters" yaml:"parameters"`
}

// GetDefinition returns the manifest definition of the tool
func GetDefinition(tool ITool) Definition {
	return Definition{
		Name:        tool.Name(),
		Description: tool.Description(),
		Parameters:  tool.Parameters(),
	}
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions returns the names and descriptions of the tools,
// formatted as JSON for a prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return utils.BackticksJSON(utils.ToJSONIndent(d))
}
