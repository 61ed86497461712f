package exchangerate

import (
	"context"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/schema"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "exchangerate")

const (
	// ToolName is the name of the currency conversion tool
	ToolName = "currency_convert"
	// EnvAPIKey is the environment variable with the API key,
	// used when the key is not configured explicitly
	EnvAPIKey = "EXCHANGE_RATE_API_KEY"
	// DefaultBaseURL is the ExchangeRate-API v6 endpoint
	DefaultBaseURL = "https://v6.exchangerate-api.com/v6"
	// DefaultTimeout bounds the upstream request
	DefaultTimeout = 10 * time.Second
)

const (
	errMissingAPIKey   = EnvAPIKey + " environment variable is not set"
	errGetExchangeRate = "Failed to get exchange rate"
	errOutOfRange      = "converted amount out of range"
)

// SupportedCurrencies is the allow-list of currency codes
var SupportedCurrencies = []string{"USD", "TWD", "EUR", "JPY", "GBP", "AUD", "CAD", "CHF", "CNY", "HKD", "NZD"}

// Request represents the tool input.
type Request struct {
	Amount         float64 `json:"amount" yaml:"amount" jsonschema:"title=Amount,description=The amount of money to convert."`
	BaseCurrency   string  `json:"base_currency" yaml:"base_currency" jsonschema:"title=Base Currency,description=The source currency code (e.g. USD or JPY).,enum=USD,enum=TWD,enum=EUR,enum=JPY,enum=GBP,enum=AUD,enum=CAD,enum=CHF,enum=CNY,enum=HKD,enum=NZD" validate:"oneof=USD TWD EUR JPY GBP AUD CAD CHF CNY HKD NZD"`
	TargetCurrency string  `json:"target_currency" yaml:"target_currency" jsonschema:"title=Target Currency,description=The target currency code (e.g. USD or JPY).,enum=USD,enum=TWD,enum=EUR,enum=JPY,enum=GBP,enum=AUD,enum=CAD,enum=CHF,enum=CNY,enum=HKD,enum=NZD" validate:"oneof=USD TWD EUR JPY GBP AUD CAD CHF CNY HKD NZD"`
}

// Normalize upper-cases the currency codes
func (r *Request) Normalize() {
	r.BaseCurrency = strings.ToUpper(r.BaseCurrency)
	r.TargetCurrency = strings.ToUpper(r.TargetCurrency)
}

// Amount is the amount of money in the currency
type Amount struct {
	Currency string  `json:"currency" yaml:"currency"`
	Amount   float64 `json:"amount" yaml:"amount"`
}

// Result is the conversion result envelope
type Result struct {
	tools.Status
	From *Amount  `json:"from" yaml:"from"`
	To   *Amount  `json:"to" yaml:"to"`
	Rate *float64 `json:"rate" yaml:"rate"`
	// Timestamp is the upstream update time of the rate on success,
	// or the time of the failure
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Tool converts amount from one currency to another
type Tool struct {
	name        string
	description string

	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

var _ tools.Tool[Request, *Result] = (*Tool)(nil)

// Option configures the Tool
type Option func(*Tool)

// WithBaseURL sets the base URL of the API
func WithBaseURL(baseURL string) Option {
	return func(t *Tool) {
		t.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) {
		t.httpClient = client
	}
}

// WithAPIKey sets the API key,
// if not set then EXCHANGE_RATE_API_KEY environment variable is used on every call
func WithAPIKey(apiKey string) Option {
	return func(t *Tool) {
		t.apiKey = apiKey
	}
}

// WithTimeout sets the timeout of the upstream request
func WithTimeout(timeout time.Duration) Option {
	return func(t *Tool) {
		t.timeout = timeout
	}
}

// New returns the currency conversion tool
func New(opts ...Option) (*Tool, error) {
	// fail on an invalid input definition at startup
	if _, err := schema.For[Request](); err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}

	t := &Tool{
		name:        ToolName,
		description: "Convert amount from one currency to another using real-time exchange rates.",
	}
	for _, opt := range opts {
		opt(t)
	}

	t.baseURL = values.StringsCoalesce(t.baseURL, DefaultBaseURL)
	if t.timeout <= 0 {
		t.timeout = DefaultTimeout
	}
	if t.httpClient == nil {
		t.httpClient = &http.Client{Timeout: t.timeout}
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
	sc, _ := schema.For[Request]()
	return sc.Parameters
}

// Validate decodes and validates the raw arguments
func (t *Tool) Validate(args any) (*Request, error) {
	return schema.Decode[Request](args)
}

func (t *Tool) Execute(ctx context.Context, chatCtx chatmodel.ChatContext, args any) (tools.Result, error) {
	return tools.Execute(ctx, t, chatCtx, args)
}

// Failure returns the failure result with the current timestamp
func (t *Tool) Failure(err error) *Result {
	return &Result{
		Status:    tools.Failed(err.Error()),
		Timestamp: tools.Timestamp(),
	}
}

// Run performs a single request to the upstream service,
// every failure is returned as the failure result.
func (t *Tool) Run(ctx context.Context, chatCtx chatmodel.ChatContext, req *Request) *Result {
	apiKey := t.apiKey
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}
	if apiKey == "" {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "missing_api_key",
			"chat_id", chatmodel.ChatID(chatCtx),
		)
		return t.Failure(errors.New(errMissingAPIKey))
	}

	pair, err := t.getPair(ctx, apiKey, req.BaseCurrency, req.TargetCurrency)
	if err != nil {
		return t.Failure(errors.WithMessage(err, "API request failed"))
	}

	if pair.Result != "success" || pair.ConversionRate <= 0 {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "upstream_error",
			"chat_id", chatmodel.ChatID(chatCtx),
			"base", req.BaseCurrency,
			"target", req.TargetCurrency,
			"result", pair.Result,
			"error_type", pair.ErrorType,
		)
		return t.Failure(errors.New(errGetExchangeRate))
	}

	rate := pair.ConversionRate
	converted := Convert(req.Amount, rate)
	if math.IsInf(converted, 0) || math.IsNaN(converted) {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "out_of_range",
			"chat_id", chatmodel.ChatID(chatCtx),
			"amount", req.Amount,
			"rate", rate,
		)
		return t.Failure(errors.New(errOutOfRange))
	}

	return &Result{
		Status: tools.Succeeded(),
		From: &Amount{
			Currency: req.BaseCurrency,
			Amount:   req.Amount,
		},
		To: &Amount{
			Currency: req.TargetCurrency,
			Amount:   converted,
		},
		Rate:      &rate,
		Timestamp: pair.TimeLastUpdateUTC,
	}
}
