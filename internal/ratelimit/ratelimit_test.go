package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterFailsOpen(t *testing.T) {
	// A nil limiter (rate limiting disabled) always allows.
	var disabled *Limiter
	assert.NoError(t, disabled.Allow(context.Background(), "10.0.0.1"))

	// A limiter without a Redis backend allows too.
	open := NewLimiter(nil, DefaultTrackLimits())
	for i := 0; i < 100; i++ {
		assert.NoError(t, open.Allow(context.Background(), "10.0.0.1"))
	}
}

func TestDefaultTrackLimits(t *testing.T) {
	limits := DefaultTrackLimits()
	assert.Equal(t, 30, limits.Requests)
	assert.Equal(t, time.Minute, limits.Window)
}
