package tools_test

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/schema"
	"github.com/effective-security/toolbelt/tools"
)

type greetInput struct {
	Name  string `json:"name" jsonschema:"title=Name,description=The name to greet." validate:"required"`
	Times int    `json:"times,omitempty" jsonschema:"title=Times,description=How many times to greet." validate:"max=3"`
}

type greetResult struct {
	tools.Status
	Greeting  *string `json:"greeting"`
	Timestamp string  `json:"timestamp"`
}

// greetTool returns the greeting, special names trigger failure modes
type greetTool struct {
	name  string
	calls int
}

var _ tools.Tool[greetInput, *greetResult] = (*greetTool)(nil)

func newGreetTool(name string) *greetTool {
	return &greetTool{name: name}
}

func (t *greetTool) Name() string {
	return t.name
}

func (t *greetTool) Description() string {
	return "Greets the caller."
}

func (t *greetTool) Parameters() any {
	sc, _ := schema.For[greetInput]()
	return sc.Parameters
}

func (t *greetTool) Validate(args any) (*greetInput, error) {
	return schema.Decode[greetInput](args)
}

func (t *greetTool) Run(_ context.Context, chatCtx chatmodel.ChatContext, in *greetInput) *greetResult {
	t.calls++
	switch in.Name {
	case "panic":
		panic("boom")
	case "nil":
		return nil
	case "fail":
		return t.Failure(errors.New("greeting failed"))
	}

	greeting := "Hello, " + in.Name
	if id := chatmodel.ChatID(chatCtx); id != "" {
		greeting += " from " + id
	}
	return &greetResult{
		Status:    tools.Succeeded(),
		Greeting:  &greeting,
		Timestamp: tools.Timestamp(),
	}
}

func (t *greetTool) Failure(err error) *greetResult {
	return &greetResult{
		Status:    tools.Failed(err.Error()),
		Timestamp: tools.Timestamp(),
	}
}

func (t *greetTool) Execute(ctx context.Context, chatCtx chatmodel.ChatContext, args any) (tools.Result, error) {
	return tools.Execute(ctx, t, chatCtx, args)
}
