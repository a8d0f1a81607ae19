package track

import (
	"context"
	"log/slog"

	"github.com/corvid-labs/ragline/internal/api"
)

// ActiveLister queries jobs currently in progress for a workspace.
type ActiveLister interface {
	GetActiveIngestions(ctx context.Context, workspaceID int) ([]api.IngestionStatus, error)
}

// Resumer reattaches the poller to an ingestion that was already running
// before this process started, so a restart does not lose visibility into
// an in-flight job.
type Resumer struct {
	api    ActiveLister
	poller *Poller
	logger *slog.Logger
}

// NewResumer creates a resumer bound to a poller.
func NewResumer(lister ActiveLister, poller *Poller, logger *slog.Logger) *Resumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resumer{api: lister, poller: poller, logger: logger}
}

// Resume asks the server for active jobs in the workspace and, if any
// exist, seeds the poller with the first one's snapshot and starts
// polling. Only the first reported job is tracked. A failed query is
// non-fatal: the job keeps running server-side either way, so the
// degraded state is just absence of visible progress.
func (r *Resumer) Resume(ctx context.Context, workspaceID int) (*api.IngestionStatus, bool) {
	active, err := r.api.GetActiveIngestions(ctx, workspaceID)
	if err != nil {
		r.logger.Warn("query active ingestions failed",
			"workspace_id", workspaceID, "error", err)
		return nil, false
	}
	if len(active) == 0 {
		return nil, false
	}

	first := active[0]
	if len(active) > 1 {
		r.logger.Info("multiple active ingestions, tracking first",
			"workspace_id", workspaceID,
			"tracked", first.DataSourceID,
			"active", len(active))
	}

	r.poller.Track(ctx, first.DataSourceID, &first)
	return &first, true
}
