package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/corvid-labs/ragline/internal/track"
)

func TestWireEvents_OutcomeLandsOnBackloggedChannel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	poller := track.NewPoller(nil, nil, 0, logger)
	coordinator := track.NewCoordinator(nil, poller, nil, 1, logger)
	trk := &tracker{poller: poller, coordinator: coordinator}

	events := wireEvents(trk)

	// Simulate a consumer that stopped reading while updates kept
	// arriving: the buffer is full of stale snapshots.
	for i := 0; i < cap(events); i++ {
		events <- progressMsg(api.IngestionStatus{DataSourceID: 7, InProgress: true})
	}

	// Must not block, and the outcome must reach the channel even
	// though no slot is free.
	coordinator.ConfirmCancelled(context.Background(), 7)

	var got *track.Outcome
	for len(events) > 0 {
		if o, ok := (<-events).(outcomeMsg); ok {
			oc := track.Outcome(o)
			got = &oc
		}
	}
	require.NotNil(t, got, "outcome lost to a full event buffer")
	assert.True(t, got.Cancelled)
	assert.Equal(t, 7, got.DataSourceID)
}
