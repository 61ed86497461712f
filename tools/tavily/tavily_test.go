package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/schema"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/toolbelt/tools/tavily"
	"github.com/effective-security/toolbelt/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tool(t *testing.T) {
	t.Setenv(tavily.EnvAPIKey, "testkey")

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req tavilyModels.SearchRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		assert.Equal(t, "What is capital of France", req.Query)

		resp := map[string]any{
			"results": []map[string]any{
				{"title": "Test Result", "url": "https://example.com", "content": "Test content", "score": 0.9},
			},
		}
		if req.IncludeAnswer {
			resp["answer"] = "Paris"
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := tavily.New(tavily.WithBaseURL(server.URL), tavily.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	assert.Equal(t, tavily.ToolName, tool.Name())
	assert.Equal(t, "internet_search", tool.Name())
	assert.Contains(t, tool.Description(), `web search`)

	params := utils.ToJSONIndent(tool.Parameters())
	expParams := `{
	"properties": {
		"query": {
			"type": "string",
			"title": "Query",
			"description": "The query to search web."
		},
		"search_depth": {
			"type": "string",
			"enum": [
				"basic",
				"advanced"
			],
			"title": "Search Depth",
			"description": "The depth of the search: basic or advanced."
		}
	},
	"type": "object",
	"required": [
		"query"
	]
}`
	assert.Equal(t, expParams, params)

	_, err = tools.Call(ctx, tool, nil, "plain string")
	assert.ErrorIs(t, err, chatmodel.ErrFailedUnmarshalInput)
	assert.True(t, schema.IsValidationError(err))

	_, err = tools.Call(ctx, tool, nil, `{"query": "   "}`)
	assert.EqualError(t, err, "invalid input: query is required")

	_, err = tools.Call(ctx, tool, nil, `{"query": "weather", "search_depth": "deep"}`)
	assert.EqualError(t, err, "invalid input: search_depth must be one of: basic, advanced")
	assert.Equal(t, int32(0), calls.Load())

	input := &tavily.SearchRequest{
		Query: "What is capital of France",
	}

	res := tool.Run(ctx, nil, input)
	require.True(t, res.Succeeded(), res.ErrorMessage())
	exp := `ANSWER: Paris
- URL: https://example.com
  TITLE: Test Result
  SCORE: 0.900000
  CONTENT: Test content
`
	assert.Equal(t, exp, res.String())

	saved := tools.TimeNow
	defer func() { tools.TimeNow = saved }()
	tools.TimeNow = func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	resp2, err := tools.Call(ctx, tool, chatmodel.NewChatContext("", nil, "", nil), utils.ToJSON(input))
	require.NoError(t, err)
	exp = `{"success":true,"error":null,"answer":"Paris","results":[{"title":"Test Result","url":"https://example.com","content":"Test content","score":0.9}],"timestamp":"2024-01-01T00:00:00Z"}`
	assert.Equal(t, exp, resp2)
	assert.Equal(t, int32(2), calls.Load())
}

func Test_Failures(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}))
	defer server.Close()

	tool, err := tavily.New(tavily.WithBaseURL(server.URL), tavily.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	t.Setenv(tavily.EnvAPIKey, "")
	res, err := tool.Execute(ctx, nil, map[string]any{"query": "weather"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, "TAVILY_API_KEY environment variable is not set", res.ErrorMessage())
	assert.Equal(t, int32(0), calls.Load())

	tool, err = tavily.New(
		tavily.WithBaseURL(server.URL),
		tavily.WithHTTPClient(server.Client()),
		tavily.WithAPIKey("configured"),
	)
	require.NoError(t, err)

	res, err = tool.Execute(ctx, nil, map[string]any{"query": "weather"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.True(t, strings.HasPrefix(res.ErrorMessage(), "search failed: "), res.ErrorMessage())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "ERROR: "+res.ErrorMessage()+"\n", res.(*tavily.Result).String())

	encoded, err := tools.Encode(res)
	require.NoError(t, err)
	assert.Contains(t, encoded, `"success":false,"error":"search failed: `)
	assert.Contains(t, encoded, `"answer":"","results":null`)
}

func Test_Timeout(t *testing.T) {
	t.Setenv(tavily.EnvAPIKey, "testkey")

	released := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(released)
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	client := server.Client()
	require.Zero(t, client.Timeout)

	tool, err := tavily.New(
		tavily.WithBaseURL(server.URL),
		tavily.WithHTTPClient(client),
		tavily.WithTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)

	res, err := tool.Execute(context.Background(), nil, map[string]any{"query": "weather"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.True(t, strings.HasPrefix(res.ErrorMessage(), "search failed: "), res.ErrorMessage())

	// the request is abandoned with the call
	select {
	case <-released:
	case <-time.After(3 * time.Second):
		t.Fatal("search request is still running")
	}
	assert.Zero(t, client.Timeout)
}

func Test_Tool_Real(t *testing.T) {
	// uncomment to run Real Tests
	t.Skip("skipping real test")

	apikey := os.Getenv(tavily.EnvAPIKey)
	if apikey == "" {
		t.Skip("TAVILY_API_KEY is not set")
	}

	ctx := context.Background()

	tool, err := tavily.New()
	require.NoError(t, err)

	input := &tavily.SearchRequest{
		Query: "What is capital of France",
	}

	resp, err := tools.Call(ctx, tool, nil, utils.ToJSON(input))
	require.NoError(t, err)
	assert.Contains(t, resp, "Paris")
}
