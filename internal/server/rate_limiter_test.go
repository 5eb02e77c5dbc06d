package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantRateLimiter_ZeroRateDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		limiter := newTenantRateLimiter(0)
		assert.True(t, limiter.Allow("tenant-1"))
	})
}

func TestTenantRateLimiter_IndependentBuckets(t *testing.T) {
	limiter := newTenantRateLimiter(1)

	assert.True(t, limiter.Allow("tenant-1"))
	assert.False(t, limiter.Allow("tenant-1"))
	assert.True(t, limiter.Allow("tenant-2"))
}
