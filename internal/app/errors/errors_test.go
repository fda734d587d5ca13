package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, "write header")

	assert.EqualError(t, err, "write header: disk full")
	assert.True(t, stderrors.Is(err, cause))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestMarkMatchesSentinel(t *testing.T) {
	err := Mark(fmt.Errorf("segment 2: status 500"), ErrTranscriptionFailed)

	assert.True(t, stderrors.Is(err, ErrTranscriptionFailed))
	assert.False(t, stderrors.Is(err, ErrFileNotFound))
	assert.Equal(t, "transcription failed: segment 2: status 500", err.Error())
}

func TestIsComparesMessage(t *testing.T) {
	wrapped := Wrapf(ErrFileNotFound, "open %s", "talk.mp3")

	assert.True(t, stderrors.Is(wrapped, ErrFileNotFound))
	assert.False(t, stderrors.Is(wrapped, ErrMissingAPIKey))
}

func TestInvalidFieldMarkedAsConfig(t *testing.T) {
	err := Mark(InvalidField("segment-minutes", "must be positive"), ErrInvalidConfig)

	assert.True(t, stderrors.Is(err, ErrInvalidConfig))
	assert.Equal(t, "invalid configuration: segment-minutes is invalid: must be positive", err.Error())
}
