package limiter

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, 8, Resolve("8", "", 5))
	assert.Equal(t, 3, Resolve("", "3", 5))
	assert.Equal(t, 8, Resolve("8", "3", 5), "header wins over query")
	assert.Equal(t, 5, Resolve("", "", 5))
	assert.Equal(t, 5, Resolve("abc", "xyz", 5))
	assert.Equal(t, MaxConcurrency, Resolve("100", "", 5))
	assert.Equal(t, 1, Resolve("0", "", 5))
	assert.Equal(t, 1, Resolve("-2", "", 5))
}

func TestMapLimit_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	// Sleep inversely to value so completion order differs from input order.
	out, err := MapLimit(context.Background(), items, 3, func(_ context.Context, v int) (string, error) {
		time.Sleep(time.Duration(6-v) * 10 * time.Millisecond)
		return strconv.Itoa(v), nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"5", "1", "4", "2", "3"}, out)
}

func TestMapLimit_BoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32
	items := make([]int, 20)

	_, err := MapLimit(context.Background(), items, 3, func(_ context.Context, _ int) (int, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return 0, nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestMapLimit_FirstErrorWins(t *testing.T) {
	items := []int{0, 1, 2}
	_, err := MapLimit(context.Background(), items, 2, func(_ context.Context, v int) (int, error) {
		if v == 1 {
			return 0, errors.New("boom")
		}
		return v, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFirstSuccessful_WinnerWins(t *testing.T) {
	fail := func(_ context.Context) (string, error) { return "", errors.New("nope") }
	succeed := func(_ context.Context) (string, error) { return "X", nil }

	out, err := FirstSuccessful(context.Background(), 2, []func(context.Context) (string, error){fail, fail, succeed})

	require.NoError(t, err)
	assert.Equal(t, "X", out)
}

func TestFirstSuccessful_AllFail(t *testing.T) {
	fail := func(_ context.Context) (string, error) { return "", errors.New("nope") }

	_, err := FirstSuccessful(context.Background(), 2, []func(context.Context) (string, error){fail, fail})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 candidates failed")
}

func TestFirstSuccessful_CancelsLosers(t *testing.T) {
	slowStarted := make(chan struct{})
	slowCanceled := make(chan struct{})

	slow := func(ctx context.Context) (string, error) {
		close(slowStarted)
		select {
		case <-ctx.Done():
			close(slowCanceled)
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "slow", nil
		}
	}
	fast := func(_ context.Context) (string, error) {
		<-slowStarted
		return "fast", nil
	}

	out, err := FirstSuccessful(context.Background(), 2, []func(context.Context) (string, error){slow, fast})
	require.NoError(t, err)
	assert.Equal(t, "fast", out)

	select {
	case <-slowCanceled:
	case <-time.After(2 * time.Second):
		t.Fatal("losing task was not canceled")
	}
}

func TestFirstSuccessful_NoTasks(t *testing.T) {
	_, err := FirstSuccessful[string](context.Background(), 2, nil)
	assert.Error(t, err)
}
