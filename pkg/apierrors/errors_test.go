package apierrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorIncludesInput(t *testing.T) {
	err := NewParseError("unexpected token", "count(T.unit.click")
	assert.Contains(t, err.Error(), "unexpected token")
	assert.Contains(t, err.Error(), `input: "count(T.unit.click"`)
}

func TestParseErrorOmitsEmptyInput(t *testing.T) {
	err := NewParseError("unexpected EOF", "")
	assert.NotContains(t, err.Error(), "input:")
}

func TestValidationErrorWithField(t *testing.T) {
	err := NewValidationError("bad_date_range", "date_for out of range").WithField("date_for")
	assert.Equal(t, "date_for", err.Field)
	assert.Contains(t, err.Error(), "field: date_for")
}

func TestValidationErrorFieldErrors(t *testing.T) {
	err := NewValidationError("schema_violation", "request body is invalid")
	assert.False(t, err.HasFieldErrors())

	err.AddFieldError("id", "id is required")
	err.AddFieldError("id", "id must be non-empty")
	err.AddFieldError("metrics", "metrics is required")

	require.True(t, err.HasFieldErrors())
	assert.Len(t, err.FieldErrors["id"], 2)
	assert.Len(t, err.FieldErrors["metrics"], 1)
}

func TestCheckErrorIncludesCheckID(t *testing.T) {
	err := NewCheckError("srm-check", "division by zero in expected counts")
	assert.Contains(t, err.Error(), "check: srm-check")
}

func TestEvaluationErrorIncludesMetricID(t *testing.T) {
	err := NewEvaluationError("ctr", "unexpected nil expression tree")
	assert.Contains(t, err.Error(), "metric: ctr")
}

func TestUpstreamErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("failed to load aggregated goals").WithCause(cause)
	assert.Contains(t, err.Error(), "caused by: connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestKindOfRecognisesEveryErrorType(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"parse", NewParseError("x", "y"), KindParse},
		{"validation", NewValidationError("x", "y"), KindValidation},
		{"check", NewCheckError("x", "y"), KindCheck},
		{"evaluation", NewEvaluationError("x", "y"), KindEvaluation},
		{"upstream", NewUpstreamError("x"), KindUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, ok := KindOf(tc.err)
			assert.True(t, ok)
			assert.Equal(t, tc.want, kind)
		})
	}
}

func TestKindOfDefaultsToEvaluationForUnknownErrors(t *testing.T) {
	kind, ok := KindOf(errors.New("some unrelated failure"))
	assert.False(t, ok)
	assert.Equal(t, KindEvaluation, kind)
}

func TestWithDetailAttachesStructuredContext(t *testing.T) {
	err := NewEvaluationError("ctr", "boom")
	err.WithDetail("variant", "b")
	assert.Equal(t, "b", err.Details["variant"])
}
