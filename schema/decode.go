package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/utils"
	"github.com/go-playground/validator/v10"
)

// Normalizer is implemented by inputs that need to be normalized
// after decoding and before validation, e.g. upper-casing of codes.
type Normalizer interface {
	Normalize()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report the JSON names, as the model knows them
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Decode converts raw tool arguments to the typed input T.
//
// The args can be map[string]any, JSON as string, []byte or json.RawMessage,
// or any value that marshals to a JSON object.
// Numeric fields accept numbers and numeric-looking strings only,
// NaN and infinities are rejected.
// Returned value is normalized and satisfies every declared constraint,
// otherwise ValidationError is returned.
func Decode[T any](args any) (*T, error) {
	sc, err := For[T]()
	if err != nil {
		return nil, err
	}

	raw, err := toMap(args)
	if err != nil {
		return nil, &ValidationError{
			Errors: []FieldError{{
				Constraint: "json",
				Message:    "input must be a JSON object",
			}},
			cause: errors.WithStack(chatmodel.ErrFailedUnmarshalInput),
		}
	}

	var ferrs []FieldError
	for _, name := range sc.Required() {
		if v, ok := raw[name]; !ok || v == nil {
			ferrs = append(ferrs, FieldError{
				Field:      name,
				Constraint: "required",
				Message:    name + " is required",
			})
		}
	}
	ferrs = append(ferrs, checkNumbers(sc, raw)...)
	if len(ferrs) > 0 {
		return nil, &ValidationError{Errors: ferrs}
	}

	bs, err := json.Marshal(raw)
	if err != nil {
		return nil, &ValidationError{
			Errors: []FieldError{{
				Constraint: "json",
				Message:    "input is not valid JSON: " + err.Error(),
			}},
			cause: errors.WithStack(chatmodel.ErrFailedUnmarshalInput),
		}
	}

	res := new(T)
	if err = ljson.Unmarshal(bs, res); err != nil {
		return nil, &ValidationError{
			Errors: []FieldError{{
				Constraint: "type",
				Message:    "invalid field type: " + err.Error(),
			}},
			cause: errors.WithStack(chatmodel.ErrFailedUnmarshalInput),
		}
	}

	if n, ok := any(res).(Normalizer); ok {
		n.Normalize()
	}

	if err = Validate(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate checks the `validate` constraints of the struct.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "failed to validate input")
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Errors = append(ve.Errors, FieldError{
			Field:      fe.Field(),
			Constraint: fe.Tag(),
			Message:    fieldMessage(fe),
		})
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(fe.Param()), ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed on the '%s' constraint", field, fe.Tag())
	}
}

// checkNumbers verifies that the values of `number` and `integer` properties
// are numbers, or strings that parse to a finite number.
// Accepted strings are replaced in raw with the parsed value.
func checkNumbers(sc *Schema, raw map[string]any) []FieldError {
	if sc.Parameters == nil || sc.Parameters.Properties == nil {
		return nil
	}

	var ferrs []FieldError
	for pair := sc.Parameters.Properties.Oldest(); pair != nil; pair = pair.Next() {
		typ := pair.Value.Type
		if typ != "number" && typ != "integer" {
			continue
		}
		name := pair.Key
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}

		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			ferrs = append(ferrs, FieldError{
				Field:      name,
				Constraint: "type",
				Message:    name + " must be a number",
			})
			continue
		}
		if typ == "integer" && f != math.Trunc(f) {
			ferrs = append(ferrs, FieldError{
				Field:      name,
				Constraint: "type",
				Message:    name + " must be an integer",
			})
			continue
		}
		switch v.(type) {
		case string, json.Number:
			raw[name] = f
		}
	}
	return ferrs
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toMap(args any) (map[string]any, error) {
	var bs []byte
	switch v := args.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		res := make(map[string]any, len(v))
		for k, val := range v {
			res[k] = val
		}
		return res, nil
	case json.RawMessage:
		bs = v
	case []byte:
		bs = v
	case string:
		bs = []byte(v)
	default:
		js, err := json.Marshal(v)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		bs = js
	}

	bs = bytes.TrimSpace(utils.CleanJSON(utils.BytesTrimBackticks(bs)))
	if len(bs) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(bs))
	dec.UseNumber()

	var res map[string]any
	if err := dec.Decode(&res); err != nil {
		return nil, errors.WithStack(err)
	}
	if res == nil {
		// `null`
		res = map[string]any{}
	}
	return res, nil
}
