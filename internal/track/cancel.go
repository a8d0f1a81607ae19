package track

import (
	"context"
	"fmt"
	"log/slog"
)

// JobCanceller sends a cancel request for an ingestion job.
type JobCanceller interface {
	CancelIngestion(ctx context.Context, dataSourceID int) error
}

// Canceller requests server-side cancellation of the currently tracked
// job and forces local tracking to stop. Cancellation is advisory to the
// server and authoritative to the client: once the cancel call is
// acknowledged, polling stops without waiting for a final status fetch.
type Canceller struct {
	api    JobCanceller
	poller *Poller
	logger *slog.Logger
}

// NewCanceller creates a canceller bound to a poller.
func NewCanceller(canceller JobCanceller, poller *Poller, logger *slog.Logger) *Canceller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Canceller{api: canceller, poller: poller, logger: logger}
}

// Cancel cancels the tracked job. No-op when nothing is tracked.
//
// The teardown is gated on the attach generation observed before the
// cancel request: if natural completion retired that generation while
// the request was in flight, completion won the race and the cancel
// reports ok=false so callers do not confirm a cancellation on top of
// the completed outcome. On failure polling is left running so the
// user can retry or wait for natural completion.
func (c *Canceller) Cancel(ctx context.Context) (int, bool, error) {
	id, gen, ok := c.poller.trackingGen()
	if !ok {
		return 0, false, nil
	}

	if err := c.api.CancelIngestion(ctx, id); err != nil {
		return id, false, fmt.Errorf("cancel ingestion %d: %w", id, err)
	}

	if !c.poller.stopGen(gen) {
		c.logger.Info("cancel lost race to completion", "data_source_id", id)
		return id, false, nil
	}

	c.logger.Info("ingestion cancelled", "data_source_id", id)
	return id, true, nil
}

// CancelJob cancels a specific job by id without touching tracking state
// unless that job is the one currently tracked.
func (c *Canceller) CancelJob(ctx context.Context, dataSourceID int) error {
	if err := c.api.CancelIngestion(ctx, dataSourceID); err != nil {
		return fmt.Errorf("cancel ingestion %d: %w", dataSourceID, err)
	}
	if id, ok := c.poller.Tracking(); ok && id == dataSourceID {
		c.poller.Stop()
	}
	c.logger.Info("ingestion cancelled", "data_source_id", dataSourceID)
	return nil
}
