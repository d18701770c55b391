package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/backoffice/internal/config"
)

func TestBuildLimitersUsesSeparateBudgets(t *testing.T) {
	ctx := context.Background()
	public, api := buildLimiters(config.RateLimitConfig{
		Backend:           "memory",
		MaxRequests:       5,
		PublicMaxRequests: 2,
		WindowSeconds:     60,
	}, nil)

	for i := 0; i < 2; i++ {
		d, err := public.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := public.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)

	d, err = api.Allow(ctx, "api:user-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 5, d.Limit)
}
