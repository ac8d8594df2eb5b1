package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameLimiter(t *testing.T) {
	l := newFrameLimiter(3)

	assert.True(t, l.allow())
	assert.True(t, l.allow())
	assert.True(t, l.allow())
	assert.False(t, l.allow())
}

func TestFrameLimiterWindowReset(t *testing.T) {
	l := newFrameLimiter(1)

	assert.True(t, l.allow())
	assert.False(t, l.allow())

	l.windowStart = time.Now().Add(-2 * time.Minute)
	assert.True(t, l.allow())
}

func TestFrameLimiterDisabled(t *testing.T) {
	l := newFrameLimiter(0)

	for i := 0; i < 1000; i++ {
		assert.True(t, l.allow())
	}
}
