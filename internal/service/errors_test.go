package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunError_FormatsTypeContextAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewErrorWithCause(ErrNetwork, "request failed", cause).WithContext("path", "/tmp/a.srt")

	msg := err.Error()
	assert.Contains(t, msg, "[Network] request failed")
	assert.Contains(t, msg, "path=/tmp/a.srt")
	assert.Contains(t, msg, "cause: connection reset")
	assert.ErrorIs(t, err, cause)
}

func TestIsErrorType_SeesThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := NewError(ErrParse, "bad subtitle")
	wrapped := fmt.Errorf("run aborted: %w", inner)

	assert.True(t, IsErrorType(wrapped, ErrParse))
	assert.False(t, IsErrorType(wrapped, ErrNetwork))
	assert.False(t, IsErrorType(errors.New("plain"), ErrParse))
}

func TestWrapError_KeepsCauseChain(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := WrapError(cause, ErrFileWrite, "failed to write translated subtitle")

	require.True(t, IsErrorType(err, ErrFileWrite))
	assert.ErrorIs(t, err, cause)
}

func TestDefaultErrorHandler_AdvicePerType(t *testing.T) {
	t.Parallel()

	handler := NewDefaultErrorHandler()
	types := []ErrorType{
		ErrFileNotFound, ErrFileRead, ErrFileWrite, ErrParse, ErrAPI,
		ErrValidation, ErrConfig, ErrNetwork, ErrTranslation, ErrUnknown,
	}
	for _, errType := range types {
		advice := handler.GetAdvice(NewError(errType, "x"))
		assert.NotEmpty(t, advice, "advice for %s", errType)
	}

	assert.True(t, handler.Handle(NewError(ErrConfig, "missing key")))
	assert.False(t, handler.Handle(errors.New("plain")))
}
