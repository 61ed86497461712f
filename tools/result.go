package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// TimeNow is used to stamp results, allows to override in tests
var TimeNow = time.Now

// Result is the execution result envelope returned by every tool.
type Result interface {
	// Succeeded returns true for the success shape
	Succeeded() bool
	// ErrorMessage returns the error of the failure shape,
	// empty for the success shape
	ErrorMessage() string
}

// Status is the discriminator of the result envelope,
// it must be embedded as the first field of a tool result,
// so `success` and `error` lead the encoded result.
type Status struct {
	Success bool    `json:"success" yaml:"success"`
	Error   *string `json:"error" yaml:"error"`
}

// Succeeded returns the success status
func Succeeded() Status {
	return Status{Success: true}
}

// Failed returns the failure status with msg
func Failed(msg string) Status {
	if msg == "" {
		msg = "unknown error"
	}
	return Status{Success: false, Error: &msg}
}

func (s Status) Succeeded() bool {
	return s.Success
}

func (s Status) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// Timestamp returns the current time in RFC 3339 format, UTC
func Timestamp() string {
	return TimeNow().UTC().Format(time.RFC3339)
}

// Encode returns the compact JSON of the result.
// The field order is defined by the result struct,
// so equal results always produce the same encoding.
func Encode(res Result) (string, error) {
	if isNil(res) {
		return "", errors.New("nil result")
	}
	js, err := json.Marshal(res)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode result")
	}
	return string(js), nil
}

// failureResult is the generic failure envelope
// of a result that could not be encoded
type failureResult struct {
	Status
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// encodeResult encodes res, or the failure result when res cannot be encoded,
// e.g. it holds a non-finite number.
// The returned error is the encoding error of res.
func encodeResult(name string, res Result) (Result, string, error) {
	output, err := Encode(res)
	if err == nil {
		return res, output, nil
	}
	res = &failureResult{
		Status:    Failed(fmt.Sprintf("tool %s returned a result that cannot be encoded", name)),
		Timestamp: Timestamp(),
	}
	output, _ = Encode(res)
	return res, output, err
}

// Decode parses the encoded result into res
func Decode(encoded string, res Result) error {
	if err := json.Unmarshal([]byte(encoded), res); err != nil {
		return errors.Wrap(err, "failed to decode result")
	}
	return nil
}
