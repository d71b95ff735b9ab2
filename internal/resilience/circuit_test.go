package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/resilience"
)

func TestBreakerOpensThenRecovers(t *testing.T) {
	ctx := context.Background()
	breaker := resilience.NewBreaker(2, 0.5, 50*time.Millisecond)

	// Two failures over a minimum sample of two trips the breaker.
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.False(t, breaker.Allow(ctx), "failure ratio at 100%% should open the breaker")

	// After the cool-off a single probe is admitted; its success closes.
	time.Sleep(60 * time.Millisecond)
	require.True(t, breaker.Allow(ctx), "cool-off elapsed, probe expected")
	breaker.Report(ctx, true)
	require.True(t, breaker.Allow(ctx), "successful probe should close the breaker")
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	ctx := context.Background()
	breaker := resilience.NewBreaker(1, 0.5, 20*time.Millisecond)

	breaker.Report(ctx, false)
	require.False(t, breaker.Allow(ctx))

	time.Sleep(30 * time.Millisecond)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.False(t, breaker.Allow(ctx), "failed probe must reopen immediately")
}

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond

	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, 2*base, resilience.Backoff(base, 2, 0))
	require.Equal(t, 4*base, resilience.Backoff(base, 3, 0))
	require.Equal(t, base, resilience.Backoff(base, 0, 0), "attempt below 1 clamps to 1")
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	base := 100 * time.Millisecond
	want := 2 * base
	spread := want / 5

	for i := 0; i < 50; i++ {
		got := resilience.Backoff(base, 2, 0.2)
		require.GreaterOrEqual(t, got, want-spread)
		require.LessOrEqual(t, got, want+spread)
	}
}
