package tavily

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/toolbelt/schema"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "tavily")

const (
	// ToolName is the name of the web search tool
	ToolName = "internet_search"
	// EnvAPIKey is the environment variable with the API key,
	// used when the key is not configured explicitly
	EnvAPIKey = "TAVILY_API_KEY"
	// DefaultTimeout bounds the upstream request
	DefaultTimeout = 10 * time.Second
)

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query       string `json:"query" yaml:"query" jsonschema:"title=Query,description=The query to search web." validate:"required"`
	SearchDepth string `json:"search_depth,omitempty" yaml:"search_depth,omitempty" jsonschema:"title=Search Depth,description=The depth of the search: basic or advanced.,enum=basic,enum=advanced" validate:"omitempty,oneof=basic advanced"`
}

func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	r.SearchDepth = strings.ToLower(strings.TrimSpace(r.SearchDepth))
}

// SearchResult is a single web page found by the search
type SearchResult struct {
	Title   string  `json:"title" yaml:"title"`
	URL     string  `json:"url" yaml:"url"`
	Content string  `json:"content" yaml:"content"`
	Score   float64 `json:"score" yaml:"score"`
}

// Result is the search result envelope
type Result struct {
	tools.Status
	// Answer is the aggregated answer from a web search
	Answer    string         `json:"answer" yaml:"answer"`
	Results   []SearchResult `json:"results" yaml:"results"`
	Timestamp string         `json:"timestamp" yaml:"timestamp"`
}

// Tool is a tool that provides a web search functionality
type Tool struct {
	name        string
	description string

	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

var _ tools.Tool[SearchRequest, *Result] = (*Tool)(nil)

// Option configures the Tool
type Option func(*Tool)

// WithBaseURL sets the base URL of the search API
func WithBaseURL(baseURL string) Option {
	return func(t *Tool) {
		t.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client.
// The search request does not accept a context,
// a client without Timeout is used with the timeout of the tool.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) {
		t.httpClient = client
	}
}

// WithAPIKey sets the API key,
// if not set then TAVILY_API_KEY environment variable is used on every call
func WithAPIKey(apiKey string) Option {
	return func(t *Tool) {
		t.apiKey = apiKey
	}
}

// WithTimeout sets the timeout of the search request
func WithTimeout(timeout time.Duration) Option {
	return func(t *Tool) {
		t.timeout = timeout
	}
}

func New(opts ...Option) (*Tool, error) {
	if _, err := schema.For[SearchRequest](); err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}

	t := &Tool{
		name:        ToolName,
		description: "A tool that provides a web search functionality. Use it to find up-to-date information on the internet.",
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.timeout <= 0 {
		t.timeout = DefaultTimeout
	}
	if t.httpClient == nil {
		t.httpClient = &http.Client{Timeout: t.timeout}
	} else if t.httpClient.Timeout <= 0 {
		c := *t.httpClient
		c.Timeout = t.timeout
		t.httpClient = &c
	}
	return t, nil
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	sc, _ := schema.For[SearchRequest]()
	return sc.Parameters
}

func (t *Tool) Validate(args any) (*SearchRequest, error) {
	return schema.Decode[SearchRequest](args)
}

func (t *Tool) Execute(ctx context.Context, chatCtx chatmodel.ChatContext, args any) (tools.Result, error) {
	return tools.Execute(ctx, t, chatCtx, args)
}

func (t *Tool) Failure(err error) *Result {
	return &Result{
		Status:    tools.Failed(err.Error()),
		Timestamp: tools.Timestamp(),
	}
}

func (t *Tool) Run(ctx context.Context, chatCtx chatmodel.ChatContext, req *SearchRequest) *Result {
	apikey := values.StringsCoalesce(t.apiKey, os.Getenv(EnvAPIKey))
	if apikey == "" {
		return t.Failure(errors.New(EnvAPIKey + " environment variable is not set"))
	}

	// Create a new Tavily client
	client := tavilygo.NewClient(apikey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	client.HTTPClient = t.httpClient

	searchReq := tavilyModels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   values.StringsCoalesce(req.SearchDepth, "basic"),
		IncludeAnswer: true,
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// tavily-go does not accept context
	done := make(chan *Result, 1)
	started := time.Now()
	go func() {
		searchResp, err := tavilygo.Search(client, searchReq)
		if err != nil {
			done <- t.Failure(errors.WithMessage(err, "search failed"))
			return
		}

		res := &Result{
			Status:    tools.Succeeded(),
			Answer:    searchResp.Answer,
			Results:   make([]SearchResult, 0, len(searchResp.Results)),
			Timestamp: tools.Timestamp(),
		}
		for _, r := range searchResp.Results {
			res.Results = append(res.Results, SearchResult{
				Title:   r.Title,
				URL:     r.URL,
				Content: r.Content,
				Score:   float64(r.Score),
			})
		}
		done <- res
	}()

	var res *Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = t.Failure(errors.New("search failed: request timed out"))
	}
	metricskey.PerfToolUpstreamRequest.MeasureSince(started, t.name)

	status := "ok"
	if !res.Succeeded() {
		status = "error"
	}
	metricskey.StatsToolUpstreamRequests.IncrCounter(1, t.name, status)

	logger.ContextKV(ctx, xlog.DEBUG,
		"chat_id", chatmodel.ChatID(chatCtx),
		"search_depth", searchReq.SearchDepth,
		"status", status,
		"results", len(res.Results),
		"err", res.ErrorMessage(),
		"elapsed", time.Since(started).String(),
	)
	return res
}

// String returns the result as text
func (r *Result) String() string {
	var buf bytes.Buffer
	if !r.Succeeded() {
		fmt.Fprintf(&buf, "ERROR: %s\n", r.ErrorMessage())
		return buf.String()
	}
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	return buf.String()
}
