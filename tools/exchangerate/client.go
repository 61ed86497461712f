package exchangerate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/toolbelt/utils"
	"github.com/effective-security/xlog"
	"github.com/shopspring/decimal"
)

// maxResponseSize limits the upstream response body
const maxResponseSize = 64 * 1024

// pairResponse is the response of the pair endpoint
type pairResponse struct {
	Result            string  `json:"result"`
	ErrorType         string  `json:"error-type,omitempty"`
	BaseCode          string  `json:"base_code,omitempty"`
	TargetCode        string  `json:"target_code,omitempty"`
	ConversionRate    float64 `json:"conversion_rate,omitempty"`
	TimeLastUpdateUTC string  `json:"time_last_update_utc,omitempty"`
}

// Convert returns amount multiplied by rate,
// rounded half to even to 2 decimal places.
func Convert(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		RoundBank(2).
		InexactFloat64()
}

func (t *Tool) pairURL(apiKey, base, target string) string {
	return t.baseURL + "/" + url.PathEscape(apiKey) + "/pair/" + url.PathEscape(base) + "/" + url.PathEscape(target)
}

// getPair sends a single GET request for the currency pair.
// The returned error never contains the API key.
func (t *Tool) getPair(ctx context.Context, apiKey, base, target string) (*pairResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	u := t.pairURL(apiKey, base, target)
	redacted := utils.RedactPathSegment(u, url.PathEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Newf("invalid request URL: %s", redacted)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := t.httpClient.Do(req)
	metricskey.PerfToolUpstreamRequest.MeasureSince(started, t.name)
	if err != nil {
		metricskey.StatsToolUpstreamRequests.IncrCounter(1, t.name, "error")
		detail := transportError(err, apiKey)
		logger.ContextKV(ctx, xlog.ERROR,
			"url", redacted,
			"err", detail,
		)
		return nil, errors.New(detail)
	}
	defer resp.Body.Close()

	metricskey.StatsToolUpstreamRequests.IncrCounter(1, t.name, strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Newf("failed to read response: %s", transportError(err, apiKey))
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"url", redacted,
		"status", resp.StatusCode,
		"elapsed", time.Since(started).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res := new(pairResponse)
		_ = json.Unmarshal(body, res)
		if res.ErrorType != "" {
			return nil, errors.Newf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), res.ErrorType)
		}
		return nil, errors.Newf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	res := new(pairResponse)
	if err = json.Unmarshal(body, res); err != nil {
		return nil, errors.Newf("invalid response: %s", err.Error())
	}
	return res, nil
}

// transportError returns the error message with the API key redacted,
// net/http includes the full URL in the transport errors.
func transportError(err error, apiKey string) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		msg := uerr.Err.Error()
		if errors.Is(uerr.Err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		return uerr.Op + " " + utils.RedactPathSegment(uerr.URL, url.PathEscape(apiKey)) + ": " + utils.RedactPathSegment(msg, apiKey)
	}
	return utils.RedactPathSegment(err.Error(), apiKey)
}
