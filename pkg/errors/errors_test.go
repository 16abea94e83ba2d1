package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndError(t *testing.T) {
	err := New(CommonNotFound, "table missing", nil)
	assert.Equal(t, "table missing", err.Error())
	assert.Equal(t, CommonNotFound, err.Code)
}

func TestNewWithCauseAndContext(t *testing.T) {
	cause := errors.New("disk full")
	err := New(CommonInternal, "write failed", cause).
		AddContext("path", "/warehouse/t/data/x.parquet")

	assert.Contains(t, err.Error(), "write failed")
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "path=/warehouse/t/data/x.parquet")
	assert.True(t, err.HasContext("path"))
	assert.Equal(t, cause, err.Unwrap())
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CommonNotFound, "table %s.%s not found", "main", "orders")
	assert.Equal(t, "table main.orders not found", err.Message)
}

func TestAddSuggestionAndRecovery(t *testing.T) {
	err := New(CommonConflict, "commit conflict", nil).
		AddSuggestion("retry the commit").
		AddRecoveryAction(RecoveryAction{Type: "retry", Automatic: true})

	require.Len(t, err.Suggestions, 1)
	assert.True(t, err.IsRecoverable())
	assert.Len(t, err.GetAutomaticRecoveryActions(), 1)
}

func TestAsErrorWrapsPlainError(t *testing.T) {
	plain := errors.New("boom")
	wrapped := AsError(plain)
	require.NotNil(t, wrapped)
	assert.Equal(t, CommonInternal, wrapped.Code)
	assert.Equal(t, plain, wrapped.Cause)
}

func TestAsErrorPassesThroughOwnType(t *testing.T) {
	original := New(CommonValidation, "bad input", nil)
	assert.Same(t, original, AsError(original))
}

func TestIs(t *testing.T) {
	err := New(CommonNotFound, "missing", nil)
	assert.True(t, Is(err, CommonNotFound))
	assert.False(t, Is(err, CommonConflict))
	assert.False(t, Is(errors.New("plain"), CommonNotFound))
}
