package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTimer 记录每次等待时长并立即返回
type recordingTimer struct {
	waits []time.Duration
}

func (t *recordingTimer) After(d time.Duration) <-chan time.Time {
	t.waits = append(t.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (t *recordingTimer) total() time.Duration {
	var sum time.Duration
	for _, w := range t.waits {
		sum += w
	}
	return sum
}

func testPolicy(timer *recordingTimer) RetryPolicy {
	return RetryPolicy{
		Name:      "test",
		Attempts:  3,
		MinDelay:  time.Second,
		MaxDelay:  20 * time.Second,
		MaxJitter: time.Second,
		Timer:     timer,
	}
}

func TestRetryPolicy_WhenAlwaysFailing_ShouldStopAfterAttempts(t *testing.T) {
	timer := &recordingTimer{}
	calls := 0
	errBoom := errors.New("boom")

	err := testPolicy(timer).Do(context.Background(), func() error {
		calls++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
	require.Len(t, timer.waits, 2)
	for _, w := range timer.waits {
		assert.GreaterOrEqual(t, w, time.Second)
		assert.LessOrEqual(t, w, 20*time.Second)
	}
	assert.LessOrEqual(t, timer.total(), 60*time.Second)
}

func TestRetryPolicy_ShouldGrowExponentiallyAndCapAtMaxDelay(t *testing.T) {
	timer := &recordingTimer{}
	p := testPolicy(timer)
	p.Attempts = 8
	p.MaxJitter = 0

	_ = p.Do(context.Background(), func() error { return errors.New("fail") })

	require.Len(t, timer.waits, 7)
	assert.Equal(t, time.Second, timer.waits[0])
	assert.Equal(t, 2*time.Second, timer.waits[1])
	assert.Equal(t, 4*time.Second, timer.waits[2])
	assert.Equal(t, 16*time.Second, timer.waits[4])
	assert.Equal(t, 20*time.Second, timer.waits[5])
	assert.Equal(t, 20*time.Second, timer.waits[6])
}

func TestRetryPolicy_WhenSucceedsOnSecondAttempt_ShouldReturnNil(t *testing.T) {
	timer := &recordingTimer{}
	calls := 0

	err := testPolicy(timer).Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, timer.waits, 1)
}

func TestRetryPolicy_WhenRetryIfRejects_ShouldNotRetry(t *testing.T) {
	timer := &recordingTimer{}
	p := testPolicy(timer)
	p.RetryIf = func(error) bool { return false }
	calls := 0

	_ = p.Do(context.Background(), func() error {
		calls++
		return errors.New("fail")
	})

	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_WhenZeroAttempts_ShouldTryOnce(t *testing.T) {
	p := RetryPolicy{Timer: &recordingTimer{}}
	calls := 0

	_ = p.Do(context.Background(), func() error {
		calls++
		return errors.New("fail")
	})

	assert.Equal(t, 1, calls)
}
