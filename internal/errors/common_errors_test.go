package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "automation error type", errType: ErrTypeAutomation, expected: "AUTOMATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeValidation, Message: "bad stem"},
			wantMessage: "[VALIDATION] bad stem",
		},
		{
			name:        "error with cause",
			appError:    &AppError{Type: ErrTypeParsing, Message: "read csv", Cause: fmt.Errorf("line 5: bad float")},
			wantMessage: "[PARSING] read csv: line 5: bad float",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewParsingError("load signals", ErrMissingColumn)

	assert.True(t, errors.Is(err, ErrMissingColumn))

	wrapped := fmt.Errorf("file a.csv: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
	assert.True(t, errors.Is(wrapped, ErrMissingColumn))
}

func TestAppError_WithContext(t *testing.T) {
	err := (&AppError{Type: ErrTypeStorage, Message: "save"}).
		WithContext("path", "out.xlsx").
		WithContext("rows", 12)

	assert.Equal(t, "out.xlsx", err.Context["path"])
	assert.Equal(t, 12, err.Context["rows"])
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"parsing", NewParsingError("m", cause), ErrTypeParsing},
		{"storage", NewStorageError("m", cause), ErrTypeStorage},
		{"validation", NewValidationError("m", nil), ErrTypeValidation},
		{"not found", NewNotFoundError("workbook"), ErrTypeNotFound},
		{"config", NewConfigError("m", cause), ErrTypeConfig},
		{"automation", NewAutomationError("m", cause), ErrTypeAutomation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}

	assert.Equal(t, "[NOT_FOUND] workbook not found", NewNotFoundError("workbook").Error())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeAutomation, TypeOf(fmt.Errorf("x: %w", NewAutomationError("export", nil))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
