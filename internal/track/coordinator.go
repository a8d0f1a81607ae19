package track

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/corvid-labs/ragline/internal/api"
)

// Ingestion kinds, used as form-cache identities and for display.
const (
	KindGit        = "git"
	KindJira       = "jira"
	KindConfluence = "confluence"
	KindDocument   = "document"
	KindCode       = "code"
)

// StartClient is the API surface the coordinator submits through.
type StartClient interface {
	StartGitIngestion(ctx context.Context, req api.GitIngestionRequest) (*api.StartResult, error)
	StartJiraIngestion(ctx context.Context, req api.JiraIngestionRequest) (*api.StartResult, error)
	StartConfluenceIngestion(ctx context.Context, req api.ConfluenceIngestionRequest) (*api.StartResult, error)
	StartDocumentIngestion(ctx context.Context, workspaceID int, name, filePath string) (*api.StartResult, error)
	StartCodeIngestion(ctx context.Context, req api.CodeIngestionRequest) (*api.CodeIngestionResult, error)
	ListDataSources(ctx context.Context, workspaceID int) ([]api.DataSource, error)
}

// FormStore clears cached form fields for an ingestion kind.
type FormStore interface {
	Clear(form string) error
}

// Submission is the normalized immediate outcome of a start call: either
// an attached asynchronous job, or a synchronous result.
type Submission struct {
	Kind         string
	Async        bool
	DataSourceID int
	Result       *api.StartResult
}

// BatchResult aggregates a sequential multi-file document submission.
type BatchResult struct {
	Submitted int
	Succeeded int
	Failed    int
	Documents int
	Errors    []string
}

// Coordinator translates validated ingestion requests into started jobs
// and normalizes the heterogeneous immediate responses of the ingestion
// kinds into either a tracked asynchronous job or a synchronous result.
type Coordinator struct {
	api         StartClient
	poller      *Poller
	forms       FormStore
	workspaceID int
	logger      *slog.Logger

	mu          sync.Mutex
	loading     bool
	pendingKind string

	onOutcome func(Outcome)
	onSources func([]api.DataSource)
}

// NewCoordinator creates a coordinator and takes over the poller's
// terminal callback.
func NewCoordinator(client StartClient, poller *Poller, forms FormStore, workspaceID int, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		api:         client,
		poller:      poller,
		forms:       forms,
		workspaceID: workspaceID,
		logger:      logger,
	}
	poller.OnTerminal(c.handleTerminal)
	return c
}

// OnOutcome registers a callback for terminal outcomes of tracked jobs,
// including confirmed cancellations.
func (c *Coordinator) OnOutcome(fn func(Outcome)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOutcome = fn
}

// OnSources registers a callback invoked with the refreshed data-source
// list after any terminal outcome or confirmed synchronous success.
func (c *Coordinator) OnSources(fn func([]api.DataSource)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSources = fn
}

// Loading reports whether a submission is in flight or being tracked.
// Every path that sets it has a matching path that clears it.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// SubmitGit starts a git repository ingestion.
func (c *Coordinator) SubmitGit(ctx context.Context, req api.GitIngestionRequest) (*Submission, error) {
	req.WorkspaceID = c.workspaceID
	return c.submit(ctx, KindGit, func() (*api.StartResult, error) {
		return c.api.StartGitIngestion(ctx, req)
	})
}

// SubmitJira starts a JIRA project ingestion.
func (c *Coordinator) SubmitJira(ctx context.Context, req api.JiraIngestionRequest) (*Submission, error) {
	req.WorkspaceID = c.workspaceID
	return c.submit(ctx, KindJira, func() (*api.StartResult, error) {
		return c.api.StartJiraIngestion(ctx, req)
	})
}

// SubmitConfluence ingests a Confluence space. The server handles this
// kind synchronously, so no poller is attached.
func (c *Coordinator) SubmitConfluence(ctx context.Context, req api.ConfluenceIngestionRequest) (*Submission, error) {
	req.WorkspaceID = c.workspaceID
	return c.submit(ctx, KindConfluence, func() (*api.StartResult, error) {
		return c.api.StartConfluenceIngestion(ctx, req)
	})
}

// submit runs one start call and interprets its immediate response.
// An async response (data source id) attaches the poller and leaves the
// loading flag set until the terminal transition clears it; a sync
// response clears loading before returning.
func (c *Coordinator) submit(ctx context.Context, kind string, start func() (*api.StartResult, error)) (*Submission, error) {
	c.setLoading(kind)

	res, err := start()
	if err != nil {
		c.clearLoading()
		return nil, fmt.Errorf("submit %s ingestion: %w", kind, err)
	}

	if res.Async() {
		c.poller.Track(ctx, res.DataSourceID, nil)
		c.logger.Info("ingestion started", "kind", kind, "data_source_id", res.DataSourceID)
		return &Submission{Kind: kind, Async: true, DataSourceID: res.DataSourceID, Result: res}, nil
	}

	c.clearLoading()
	if res.Success {
		c.confirmSuccess(ctx, kind)
	}
	return &Submission{Kind: kind, Result: res}, nil
}

// SubmitDocuments uploads files sequentially, one synchronous call per
// file, accumulating per-file success and failure. A failed file never
// aborts the batch.
func (c *Coordinator) SubmitDocuments(ctx context.Context, name string, paths []string) (*BatchResult, error) {
	c.setLoading(KindDocument)
	defer c.clearLoading()

	batch := &BatchResult{Submitted: len(paths)}
	for _, path := range paths {
		display := name
		if len(paths) > 1 {
			display = fmt.Sprintf("%s (%s)", name, filepath.Base(path))
		}

		res, err := c.api.StartDocumentIngestion(ctx, c.workspaceID, display, path)
		if err != nil {
			batch.Failed++
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			c.logger.Warn("document upload failed", "file", path, "error", err)
			continue
		}
		if !res.Success {
			batch.Failed++
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %s", filepath.Base(path), res.Error))
			continue
		}

		batch.Succeeded++
		batch.Documents += res.DocumentsCount
	}

	if batch.Succeeded > 0 {
		c.confirmSuccess(ctx, KindDocument)
	}
	return batch, nil
}

// SubmitCode ingests a source code tree synchronously.
func (c *Coordinator) SubmitCode(ctx context.Context, req api.CodeIngestionRequest) (*api.CodeIngestionResult, error) {
	req.WorkspaceID = c.workspaceID
	c.setLoading(KindCode)
	defer c.clearLoading()

	res, err := c.api.StartCodeIngestion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit code ingestion: %w", err)
	}
	if res.Success {
		c.confirmSuccess(ctx, KindCode)
	}
	return res, nil
}

// ConfirmCancelled records an acknowledged cancellation of the job the
// coordinator was tracking: clears loading, refreshes the source list
// (the job may have left partial state server-side) and emits a
// cancelled outcome.
func (c *Coordinator) ConfirmCancelled(ctx context.Context, dataSourceID int) {
	c.mu.Lock()
	c.loading = false
	c.pendingKind = ""
	cb := c.onOutcome
	c.mu.Unlock()

	c.refreshSources(ctx)
	if cb != nil {
		cb(Outcome{DataSourceID: dataSourceID, Status: api.JobCancelled, Cancelled: true})
	}
}

func (c *Coordinator) setLoading(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
	c.pendingKind = kind
}

func (c *Coordinator) clearLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.pendingKind = ""
}

// confirmSuccess clears the kind's cached form fields and refreshes the
// data-source list.
func (c *Coordinator) confirmSuccess(ctx context.Context, kind string) {
	if c.forms != nil {
		if err := c.forms.Clear(kind); err != nil {
			c.logger.Warn("clear cached form failed", "kind", kind, "error", err)
		}
	}
	c.refreshSources(ctx)
}

// handleTerminal runs once per tracked job, gated by the poller's
// idempotent terminal transition.
func (c *Coordinator) handleTerminal(o Outcome) {
	c.mu.Lock()
	kind := c.pendingKind
	c.pendingKind = ""
	c.loading = false
	cb := c.onOutcome
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if o.Succeeded() && kind != "" {
		if c.forms != nil {
			if err := c.forms.Clear(kind); err != nil {
				c.logger.Warn("clear cached form failed", "kind", kind, "error", err)
			}
		}
	}
	c.refreshSources(ctx)

	if cb != nil {
		cb(o)
	}
}

// refreshSources re-fetches the workspace's data sources; failures are
// logged only, the stale list is a degraded-but-safe state.
func (c *Coordinator) refreshSources(ctx context.Context) {
	c.mu.Lock()
	cb := c.onSources
	c.mu.Unlock()
	if cb == nil {
		return
	}

	sources, err := c.api.ListDataSources(ctx, c.workspaceID)
	if err != nil {
		c.logger.Warn("refresh data sources failed",
			"workspace_id", c.workspaceID, "error", err)
		return
	}
	cb(sources)
}
