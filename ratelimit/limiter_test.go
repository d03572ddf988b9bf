package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	IDENTITY = "client-1"
	LIMIT    = 10
	WINDOW   = time.Hour
)

type mockWindowDao struct {
	taken int
	err   error
}

func (m *mockWindowDao) TakeSlot(bucket, identity string, limit int, window time.Duration, now time.Time) (bool, int, time.Time, error) {
	if m.err != nil {
		return false, 0, time.Time{}, m.err
	}
	m.taken++
	if m.taken > limit {
		return false, 0, now.Add(window), nil
	}
	return true, limit - m.taken, now.Add(window), nil
}

func TestLimiter_AllowBoundary(t *testing.T) {
	limiter := NewLimiter(&mockWindowDao{}, LIMIT, WINDOW, true)

	var decision Decision
	for i := 0; i < LIMIT; i++ {
		decision = limiter.Allow(IDENTITY, BucketScheduling)
		require.True(t, decision.Allowed, "Expected call %d to be within quota", i+1)
	}
	require.Equal(t, 0, decision.Remaining, "Expected the 10th call to use the last slot")

	decision = limiter.Allow(IDENTITY, BucketScheduling)
	require.False(t, decision.Allowed, "Expected the 11th call to be rejected")
	require.True(t, decision.ResetAt.After(time.Now()))
}

func TestLimiter_FailOpen(t *testing.T) {
	limiter := NewLimiter(&mockWindowDao{err: errors.New("store unreachable")}, LIMIT, WINDOW, true)

	decision := limiter.Allow(IDENTITY, BucketScheduling)

	require.True(t, decision.Allowed, "Expected traffic to pass while the store is down")
}

func TestLimiter_FailClosed(t *testing.T) {
	limiter := NewLimiter(&mockWindowDao{err: errors.New("store unreachable")}, LIMIT, WINDOW, false)

	decision := limiter.Allow(IDENTITY, BucketScheduling)

	require.False(t, decision.Allowed, "Expected traffic to be blocked while the store is down")
}
