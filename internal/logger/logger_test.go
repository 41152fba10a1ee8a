package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferLogger_CapturesMessages(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("resolving hostname for %s", "fw-east")
	l.Info("dispatching to %d firewalls", 3)
	l.Warn("stale cache entry for %s", "fw-west")
	l.Error("query failed: %v", "timeout")

	assert.Len(t, l.Messages, 4)
	assert.Equal(t, "debug", l.Messages[0].Level)
	assert.Equal(t, "resolving hostname for fw-east", l.Messages[0].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, l.HasLevel("fatal"))
}

func TestBufferLogger_Clear(t *testing.T) {
	l := NewBufferLogger()
	l.Info("one")
	l.Clear()

	assert.Empty(t, l.Messages)
}

func TestNoop_DiscardsEverything(t *testing.T) {
	l := Noop()

	// Must not panic or emit anything.
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	buf := NewBufferLogger()
	SetDefault(buf)
	Default().Info("hello")

	assert.Len(t, buf.Messages, 1)
}
