package callbacks_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/effective-security/toolbelt/callbacks"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/stretchr/testify/assert"
)

func TestCallback(t *testing.T) {
	var buf bytes.Buffer
	cb := callbacks.NewPrinter(&buf, callbacks.ModeVerbose)

	tool := &fakeTool{name: "test-tool"}
	ctx := context.Background()

	cb.OnToolStart(ctx, tool, "test input")
	cb.OnToolEnd(ctx, tool, "test input", "test output")
	cb.OnToolError(ctx, tool, "test input", errors.New("test error"))
	cb.OnToolNotFound(ctx, "unknown")

	res := buf.String()
	assert.Contains(t, res, "Tool Start: test-tool\n")
	assert.Contains(t, res, "Input: test input")
	assert.Contains(t, res, "Tool End: test-tool\n")
	assert.Contains(t, res, "Output: test output")
	assert.Contains(t, res, "Tool Error: test-tool: test error")
	assert.Contains(t, res, "Tool Not Found: unknown")
}

func TestCallback_DefaultMode(t *testing.T) {
	var buf bytes.Buffer
	cb := callbacks.NewPrinter(&buf, callbacks.ModeDefault)

	tool := &fakeTool{name: "test-tool"}
	ctx := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext("chat1", nil, "", nil))

	cb.OnToolStart(ctx, tool, "test input")
	cb.OnToolEnd(ctx, tool, "test input", "test output")

	res := buf.String()
	assert.Contains(t, res, "Tool Start: test-tool (chat1)")
	assert.Contains(t, res, "Tool End: test-tool (chat1)")
	assert.NotContains(t, res, "Output: test output")
}

func TestFanout(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	fan := callbacks.NewFanout(callbacks.NewPrinter(&buf1, callbacks.ModeVerbose))
	fan.Add(callbacks.NewPrinter(&buf2, callbacks.ModeDefault))
	fan.Add(callbacks.NewNoop())
	fan.Add(callbacks.NewPackageLogger(xlog.NewPackageLogger("github.com/effective-security/toolbelt", "callbacks_test")))

	tool := &fakeTool{name: "test-tool"}
	ctx := context.Background()

	fan.OnToolStart(ctx, tool, "test input")
	fan.OnToolEnd(ctx, tool, "test input", "test output")
	fan.OnToolError(ctx, tool, "test input", errors.New("test error"))
	fan.OnToolNotFound(ctx, "unknown")

	for _, buf := range []*bytes.Buffer{&buf1, &buf2} {
		res := buf.String()
		assert.Contains(t, res, "Tool Start: test-tool")
		assert.Contains(t, res, "Tool Error: test-tool: test error")
		assert.Contains(t, res, "Tool Not Found: unknown")
	}
	assert.Contains(t, buf1.String(), "Output: test output")
	assert.NotContains(t, buf2.String(), "Output: test output")
}

func TestDescriptions(t *testing.T) {
	tool1 := &fakeTool{name: "test-tool1", description: "test tool 1"}
	tool2 := &fakeTool{name: "test-tool2"}

	descr := tools.GetDescriptions(tool1, tool2)
	exp := "\n```json" + `
{
	"Tools": [
		{
			"Name": "test-tool1",
			"Description": "test tool 1"
		},
		{
			"Name": "test-tool2",
			"Description": "useful tool"
		}
	]
}
` + "```\n"
	assert.Equal(t, exp, descr)
}

type fakeTool struct {
	name        string
	description string
}

func (f *fakeTool) Name() string {
	return f.name
}
func (f *fakeTool) Description() string {
	return values.StringsCoalesce(f.description, "useful tool")
}
func (f *fakeTool) Parameters() any {
	return nil
}
func (f *fakeTool) Execute(context.Context, chatmodel.ChatContext, any) (tools.Result, error) {
	return tools.Succeeded(), nil
}
