package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 2})

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "non-consecutive failures must not open")
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := New(Config{Name: "test", FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 30 * time.Second})
	b.nowFn = func() time.Time { return now }

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)

	// After the open timeout the next call probes.
	now = now.Add(31 * time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateHalfOpen, b.State(), "needs two successes to close")
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := New(Config{Name: "test", FailureThreshold: 1, OpenTimeout: time.Second})
	b.nowFn = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	require.NoError(t, b.Allow())
	require.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New(Config{
		Name:             "github",
		FailureThreshold: 1,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.RecordFailure()
	assert.Equal(t, []string{"closed->open"}, transitions)
}
