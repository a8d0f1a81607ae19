package track

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJobCanceller records cancel requests. An optional onCancel hook
// runs while the request is "in flight".
type fakeJobCanceller struct {
	mu        sync.Mutex
	err       error
	onCancel  func()
	cancelled []int
}

func (f *fakeJobCanceller) CancelIngestion(ctx context.Context, dataSourceID int) error {
	if f.onCancel != nil {
		f.onCancel()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, dataSourceID)
	return nil
}

func (f *fakeJobCanceller) cancelledIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.cancelled...)
}

func TestCanceller_NoTrackedJob(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	jc := &fakeJobCanceller{}
	c := NewCanceller(jc, h.poller, testLogger())

	id, ok, err := c.Cancel(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.Empty(t, jc.cancelledIDs())
}

func TestCanceller_CancelStopsTracking(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	jc := &fakeJobCanceller{}
	c := NewCanceller(jc, h.poller, testLogger())

	h.poller.Track(context.Background(), 13, nil)
	h.clock.ticker(t)

	id, ok, err := c.Cancel(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 13, id)
	assert.Equal(t, []int{13}, jc.cancelledIDs())

	assert.Equal(t, StateStopped, h.poller.State())
	// Teardown by cancel fires no terminal outcome; the caller reports
	// the cancellation itself.
	h.assertNoOutcome(t)
}

func TestCanceller_ServerErrorLeavesPollingRunning(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	jc := &fakeJobCanceller{err: errors.New("cancellation not supported")}
	c := NewCanceller(jc, h.poller, testLogger())

	h.poller.Track(context.Background(), 13, nil)
	h.clock.ticker(t)

	id, ok, err := c.Cancel(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, 13, id)

	// The job is still tracked; the user can retry or wait.
	assert.Equal(t, StatePolling, h.poller.State())
	tracked, tracking := h.poller.Tracking()
	require.True(t, tracking)
	assert.Equal(t, 13, tracked)

	h.poller.Stop()
}

func TestCanceller_CancelAfterNaturalCompletion(t *testing.T) {
	h := newHarness(&fakeFetcher{queue: []fetchResult{
		{st: finished(13)},
	}})
	jc := &fakeJobCanceller{}
	c := NewCanceller(jc, h.poller, testLogger())

	h.poller.Track(context.Background(), 13, nil)
	h.clock.ticker(t).tick()
	h.waitUpdate(t)
	h.waitOutcome(t)

	// The cancel raced with completion and lost: nothing is tracked
	// anymore, so the cancel is a no-op.
	id, ok, err := c.Cancel(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.Empty(t, jc.cancelledIDs())
}

func TestCanceller_CompletionWhileCancelInFlight(t *testing.T) {
	h := newHarness(&fakeFetcher{queue: []fetchResult{
		{st: finished(13)},
	}})
	jc := &fakeJobCanceller{}
	c := NewCanceller(jc, h.poller, testLogger())

	h.poller.Track(context.Background(), 13, nil)
	tk := h.clock.ticker(t)

	// While the cancel request is in flight, a poll tick observes the
	// job's natural completion and retires the attach generation.
	jc.onCancel = func() {
		tk.tick()
		h.waitUpdate(t)
		h.waitOutcome(t)
	}

	id, ok, err := c.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 13, id)
	assert.False(t, ok, "completion won the race; the cancel must not be confirmed")

	assert.Equal(t, StateStopped, h.poller.State())
	// Exactly one outcome: the completion consumed inside the hook.
	h.assertNoOutcome(t)
}

func TestCanceller_CancelJobByID(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	jc := &fakeJobCanceller{}
	c := NewCanceller(jc, h.poller, testLogger())

	require.NoError(t, c.CancelJob(context.Background(), 99))
	assert.Equal(t, []int{99}, jc.cancelledIDs())
	assert.Equal(t, StateIdle, h.poller.State())
}

func TestCanceller_CancelJobByIDStopsTrackedJob(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	jc := &fakeJobCanceller{}
	c := NewCanceller(jc, h.poller, testLogger())

	h.poller.Track(context.Background(), 50, nil)
	h.clock.ticker(t)

	// Cancelling an unrelated job leaves tracking alone.
	require.NoError(t, c.CancelJob(context.Background(), 51))
	assert.Equal(t, StatePolling, h.poller.State())

	// Cancelling the tracked job stops it.
	require.NoError(t, c.CancelJob(context.Background(), 50))
	assert.Equal(t, StateStopped, h.poller.State())
}
