package noteerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := New(KindNoCaptions, "captions disabled").WithContext("video", "abc123")

	msg := err.Error()
	assert.Contains(t, msg, "[NoCaptions]")
	assert.Contains(t, msg, "captions disabled")
	assert.Contains(t, msg, "video=abc123")
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(KindNetwork, "connection reset")
	wrapped := fmt.Errorf("fetch captions: %w", base)

	assert.Equal(t, KindNetwork, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNetwork))
	assert.False(t, IsKind(wrapped, KindTimeout))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Wrap(cause, KindTimeout, "metadata fetch timed out")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(New(KindNetwork, "x")))
	assert.True(t, IsTransient(New(KindTimeout, "x")))
	assert.False(t, IsTransient(New(KindNoCaptions, "x")))
	assert.False(t, IsTransient(New(KindResourceExhausted, "x")))
	assert.False(t, IsTransient(errors.New("plain")))
}
