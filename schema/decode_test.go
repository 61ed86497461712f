package schema_test

import (
	"encoding/json"
	goerr "errors"
	"math"
	"strings"
	"testing"

	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferInput struct {
	Amount   float64 `json:"amount" jsonschema:"description=Amount to transfer"`
	Currency string  `json:"currency" validate:"oneof=USD EUR JPY"`
	Note     string  `json:"note,omitempty" validate:"max=10"`
	Express  bool    `json:"express,omitempty"`
}

type countInput struct {
	Count int `json:"count"`
}

func (i *transferInput) Normalize() {
	i.Currency = strings.ToUpper(i.Currency)
}

func TestDecode(t *testing.T) {
	tcs := []struct {
		name string
		args any
		exp  transferInput
	}{
		{
			name: "map",
			args: map[string]any{"amount": 10.5, "currency": "usd"},
			exp:  transferInput{Amount: 10.5, Currency: "USD"},
		},
		{
			name: "string",
			args: `{"amount": 100, "currency": "EUR", "express": true}`,
			exp:  transferInput{Amount: 100, Currency: "EUR", Express: true},
		},
		{
			name: "backticks",
			args: "Here you go:\n```json\n{\"amount\": 1, \"currency\": \"jpy\"}\n```",
			exp:  transferInput{Amount: 1, Currency: "JPY"},
		},
		{
			name: "raw message",
			args: json.RawMessage(`{"amount": 0, "currency": "Usd", "note": "rent"}`),
			exp:  transferInput{Amount: 0, Currency: "USD", Note: "rent"},
		},
		{
			name: "bytes with numeric string",
			args: []byte(`{"amount": "42.25", "currency": "eur"}`),
			exp:  transferInput{Amount: 42.25, Currency: "EUR"},
		},
		{
			name: "struct",
			args: struct {
				Amount   float64 `json:"amount"`
				Currency string  `json:"currency"`
			}{Amount: 3, Currency: "usd"},
			exp: transferInput{Amount: 3, Currency: "USD"},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			res, err := schema.Decode[transferInput](tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, *res)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := schema.Decode[transferInput](map[string]any{"currency": "USD"})
		require.Error(t, err)
		ve := schema.AsValidationError(err)
		require.NotNil(t, ve)
		assert.Equal(t, []string{"amount"}, ve.Fields())
		assert.Equal(t, "required", ve.Errors[0].Constraint)
		assert.EqualError(t, err, "invalid input: amount is required")
	})

	t.Run("null", func(t *testing.T) {
		_, err := schema.Decode[transferInput](`{"amount": null, "currency": null}`)
		assert.EqualError(t, err, "invalid input: amount is required; currency is required")
	})

	t.Run("empty", func(t *testing.T) {
		for _, args := range []any{nil, "", "null", map[string]any{}} {
			_, err := schema.Decode[transferInput](args)
			assert.EqualError(t, err, "invalid input: amount is required; currency is required")
		}
	})

	t.Run("oneof", func(t *testing.T) {
		_, err := schema.Decode[transferInput](`{"amount": 1, "currency": "gbp"}`)
		require.Error(t, err)
		assert.EqualError(t, err, "invalid input: currency must be one of: USD, EUR, JPY")
		ve := schema.AsValidationError(err)
		require.NotNil(t, ve)
		assert.Equal(t, schema.FieldError{
			Field:      "currency",
			Constraint: "oneof",
			Message:    "currency must be one of: USD, EUR, JPY",
		}, ve.Errors[0])
	})

	t.Run("multiple", func(t *testing.T) {
		_, err := schema.Decode[transferInput](`{"amount": 1, "currency": "gbp", "note": "this note is too long"}`)
		ve := schema.AsValidationError(err)
		require.NotNil(t, ve)
		assert.Equal(t, []string{"currency", "note"}, ve.Fields())
		assert.Equal(t, "note must be less than or equal to 10", ve.Errors[1].Message)
	})

	t.Run("not json", func(t *testing.T) {
		for _, args := range []any{"plain string", "[1,2]", `{"amount":`} {
			_, err := schema.Decode[transferInput](args)
			require.Error(t, err)
			assert.True(t, schema.IsValidationError(err))
			assert.True(t, goerr.Is(err, schema.ErrValidation))
			assert.True(t, goerr.Is(err, chatmodel.ErrFailedUnmarshalInput))
			assert.EqualError(t, err, "invalid input: input must be a JSON object")
		}
	})

	t.Run("type", func(t *testing.T) {
		tcs := []struct {
			name string
			args any
		}{
			{"object", `{"amount": {"value": 1}, "currency": "USD"}`},
			{"word", `{"amount": "abc", "currency": "USD"}`},
			{"bool", `{"amount": true, "currency": "USD"}`},
			{"nan", `{"amount": "NaN", "currency": "USD"}`},
			{"inf", `{"amount": "Inf", "currency": "USD"}`},
			{"array", `{"amount": [], "currency": "USD"}`},
			{"padded", `{"amount": " 12", "currency": "USD"}`},
			{"overflow", `{"amount": 1e400, "currency": "USD"}`},
			{"go nan", map[string]any{"amount": math.NaN(), "currency": "USD"}},
			{"go inf", map[string]any{"amount": math.Inf(-1), "currency": "USD"}},
			{"go bool", map[string]any{"amount": false, "currency": "USD"}},
		}
		for _, tc := range tcs {
			t.Run(tc.name, func(t *testing.T) {
				_, err := schema.Decode[transferInput](tc.args)
				require.Error(t, err)
				assert.True(t, goerr.Is(err, schema.ErrValidation))
				ve := schema.AsValidationError(err)
				require.NotNil(t, ve)
				assert.Equal(t, []schema.FieldError{{
					Field:      "amount",
					Constraint: "type",
					Message:    "amount must be a number",
				}}, ve.Errors)
			})
		}
	})

	t.Run("type and required", func(t *testing.T) {
		_, err := schema.Decode[transferInput](`{"amount": "abc"}`)
		assert.EqualError(t, err, "invalid input: currency is required; amount must be a number")
	})

	t.Run("integer", func(t *testing.T) {
		_, err := schema.Decode[countInput](`{"count": "1.5"}`)
		assert.EqualError(t, err, "invalid input: count must be an integer")

		res, err := schema.Decode[countInput](`{"count": "7"}`)
		require.NoError(t, err)
		assert.Equal(t, 7, res.Count)
	})

	t.Run("not serializable", func(t *testing.T) {
		_, err := schema.Decode[transferInput](map[string]any{"amount": 1, "currency": "USD", "note": math.NaN()})
		require.Error(t, err)
		assert.True(t, goerr.Is(err, schema.ErrValidation))
		assert.True(t, goerr.Is(err, chatmodel.ErrFailedUnmarshalInput))
		assert.Equal(t, "json", schema.AsValidationError(err).Errors[0].Constraint)
	})

	t.Run("not a validation error", func(t *testing.T) {
		assert.False(t, schema.IsValidationError(goerr.New("other")))
		assert.Nil(t, schema.AsValidationError(goerr.New("other")))
	})
}

func TestDecode_InputIsNotMutated(t *testing.T) {
	args := map[string]any{"amount": 1, "currency": "usd"}
	res, err := schema.Decode[transferInput](args)
	require.NoError(t, err)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, "usd", args["currency"])
}
