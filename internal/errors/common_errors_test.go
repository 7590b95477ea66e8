package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewSchemaError("no column resolves to role amount"),
			wantMessage: "[SCHEMA] no column resolves to role amount",
		},
		{
			name:        "error with cause",
			appError:    NewParsingError("read csv", fmt.Errorf("unexpected EOF")),
			wantMessage: "[PARSING] read csv: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_IsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{"schema matches", NewSchemaError("x"), ErrSchema, true},
		{"insufficient data matches", NewInsufficientDataError(1, 0), ErrInsufficientData, true},
		{"insufficient history matches", NewInsufficientHistoryError("aggregate", 2, 1), ErrInsufficientHistory, true},
		{"model fit matches", NewModelFitError("linear_trend", "singular"), ErrModelFit, true},
		{"wrapped still matches", fmt.Errorf("clean: %w", NewInsufficientDataError(1, 0)), ErrInsufficientData, true},
		{"different type does not match", NewSchemaError("x"), ErrModelFit, false},
		{"plain error does not match", errors.New("boom"), ErrSchema, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestAppError_IsDoesNotMatchConcreteErrors(t *testing.T) {
	a := NewSchemaError("first")
	b := NewSchemaError("second")
	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, a))
}

func TestInsufficientErrors_CarryRemediation(t *testing.T) {
	err := NewInsufficientHistoryError("decompose", 24, 10)
	assert.Contains(t, err.Error(), "at least 24 periods")
	assert.Equal(t, 24, err.Context["required"])
	assert.Equal(t, 10, err.Context["got"])
	assert.Equal(t, "decompose", err.Context["stage"])

	dataErr := NewInsufficientDataError(1, 0)
	assert.Contains(t, dataErr.Error(), "at least 1 valid rows")
}

func TestTypeOf(t *testing.T) {
	typ, ok := TypeOf(fmt.Errorf("wrap: %w", NewModelFitError("naive_seasonal", "no full cycle")))
	require.True(t, ok)
	assert.Equal(t, ErrTypeModelFit, typ)

	_, ok = TypeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsSchemaError(NewSchemaError("x")))
	assert.True(t, IsInsufficientData(NewInsufficientDataError(1, 0)))
	assert.True(t, IsInsufficientHistory(NewInsufficientHistoryError("forecast", 4, 3)))
	assert.True(t, IsModelFit(NewModelFitError("exp_smoothing", "x")))
	assert.False(t, IsModelFit(nil))
}

func TestAppError_WithContextInitializesMap(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad"}
	err.WithContext("field", "port")
	assert.Equal(t, "port", err.Context["field"])
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write export", cause)
	assert.ErrorIs(t, err, cause)
}
