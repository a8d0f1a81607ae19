package track

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister scripts the active-jobs query.
type fakeLister struct {
	mu     sync.Mutex
	active []api.IngestionStatus
	err    error
	calls  int
}

func (f *fakeLister) GetActiveIngestions(ctx context.Context, workspaceID int) ([]api.IngestionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.active, f.err
}

func TestResumer_NoActiveJobs(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	r := NewResumer(&fakeLister{}, h.poller, testLogger())

	st, ok := r.Resume(context.Background(), 1)
	assert.False(t, ok)
	assert.Nil(t, st)
	assert.Equal(t, StateIdle, h.poller.State())
}

func TestResumer_QueryFailureIsNonFatal(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	r := NewResumer(&fakeLister{err: errors.New("connection refused")}, h.poller, testLogger())

	st, ok := r.Resume(context.Background(), 1)
	assert.False(t, ok)
	assert.Nil(t, st)
	assert.Equal(t, StateIdle, h.poller.State())
}

func TestResumer_AttachesWithSeedSnapshot(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	lister := &fakeLister{active: []api.IngestionStatus{*running(14, 35)}}
	r := NewResumer(lister, h.poller, testLogger())

	st, ok := r.Resume(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, 14, st.DataSourceID)

	// The seed snapshot surfaced before any poll tick.
	got := h.waitUpdate(t)
	assert.Equal(t, 35, got.Progress.Current)
	assert.Zero(t, h.fetcher.callCount())

	id, tracking := h.poller.Tracking()
	require.True(t, tracking)
	assert.Equal(t, 14, id)

	h.poller.Stop()
}

func TestResumer_TracksFirstOfMultiple(t *testing.T) {
	h := newHarness(&fakeFetcher{})
	lister := &fakeLister{active: []api.IngestionStatus{
		*running(21, 10),
		*running(22, 50),
	}}
	r := NewResumer(lister, h.poller, testLogger())

	st, ok := r.Resume(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, 21, st.DataSourceID)

	id, tracking := h.poller.Tracking()
	require.True(t, tracking)
	assert.Equal(t, 21, id)

	h.poller.Stop()
}

func TestResumer_TerminalSnapshotFinishesImmediately(t *testing.T) {
	// The job finished between the active query and the resume; the
	// stale snapshot short-circuits to the terminal transition.
	h := newHarness(&fakeFetcher{})
	lister := &fakeLister{active: []api.IngestionStatus{*finished(30)}}
	r := NewResumer(lister, h.poller, testLogger())

	_, ok := r.Resume(context.Background(), 1)
	require.True(t, ok)

	o := h.waitOutcome(t)
	assert.Equal(t, 30, o.DataSourceID)
	assert.Equal(t, api.JobCompleted, o.Status)
	assert.Equal(t, StateStopped, h.poller.State())
}
