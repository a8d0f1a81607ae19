// Package track implements client-side tracking of long-running ingestion
// jobs: a polling state machine, resumption of jobs already in flight,
// submission coordination across ingestion kinds, and cancellation.
//
// The server owns the source of truth for every job; the state kept here
// is a cache that is always reconcilable by re-polling.
package track

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corvid-labs/ragline/internal/api"
)

// DefaultPollInterval is the delay between progress fetches.
const DefaultPollInterval = time.Second

// ProgressFetcher fetches the current status of one ingestion job.
type ProgressFetcher interface {
	GetIngestionProgress(ctx context.Context, dataSourceID int) (*api.IngestionStatus, error)
}

// State is the poller lifecycle state.
type State int

const (
	// StateIdle means no job has ever been attached.
	StateIdle State = iota
	// StatePolling means a job is attached and the timer is running.
	StatePolling
	// StateStopped means tracking ended; a new job may be attached.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Outcome describes how tracking of one job ended.
type Outcome struct {
	DataSourceID int
	Status       api.JobStatus
	// Cancelled is set when tracking was torn down by an acknowledged
	// cancel request rather than an observed terminal status.
	Cancelled bool
	Error     string
	Last      *api.IngestionStatus
}

// Succeeded reports whether the job reached completed.
func (o Outcome) Succeeded() bool {
	return !o.Cancelled && o.Status == api.JobCompleted
}

// Poller owns the repeating-timer lifecycle for exactly one job at a time.
//
// Requests are issued strictly serially: the next tick is not handled
// until the previous fetch returned. Responses for a job that is no
// longer tracked are discarded via an attach generation counter. The
// terminal transition fires side effects exactly once per attached job.
type Poller struct {
	fetch    ProgressFetcher
	clock    Clock
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	jobID    int
	gen      int
	snapshot *api.IngestionStatus
	stop     chan struct{}

	onUpdate   func(api.IngestionStatus)
	onTerminal func(Outcome)
}

// NewPoller creates a poller. A nil clock uses the system clock; a zero
// interval uses DefaultPollInterval.
func NewPoller(fetch ProgressFetcher, clock Clock, interval time.Duration, logger *slog.Logger) *Poller {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetch:    fetch,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// OnUpdate registers a callback invoked with each fresh snapshot,
// including the seed snapshot passed to Track.
func (p *Poller) OnUpdate(fn func(api.IngestionStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// OnTerminal registers a callback invoked exactly once when tracking
// observes a terminal state.
func (p *Poller) OnTerminal(fn func(Outcome)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onTerminal = fn
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Tracking returns the attached job id, if any.
func (p *Poller) Tracking() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID, p.state == StatePolling
}

// trackingGen returns the tracked job id and its attach generation
// while polling.
func (p *Poller) trackingGen() (id, gen int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID, p.gen, p.state == StatePolling
}

// stopGen tears down polling only while gen is still the live attach
// generation. Reports whether teardown happened; false means the
// generation was already retired, e.g. by an observed terminal state.
func (p *Poller) stopGen(gen int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.state != StatePolling {
		return false
	}
	p.clearLocked()
	return true
}

// Snapshot returns the most recent progress snapshot, or nil.
func (p *Poller) Snapshot() *api.IngestionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Track attaches a job and starts polling. If another job is already
// being polled its timer is stopped first; at most one timer runs per
// poller. An optional seed snapshot (from the active-jobs query) is
// surfaced through OnUpdate before the first tick. A terminal seed
// short-circuits straight to the terminal transition.
func (p *Poller) Track(ctx context.Context, dataSourceID int, seed *api.IngestionStatus) {
	p.mu.Lock()
	if p.state == StatePolling && p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.gen++
	gen := p.gen
	p.jobID = dataSourceID
	p.snapshot = seed
	p.state = StatePolling
	stop := make(chan struct{})
	p.stop = stop
	update := p.onUpdate
	p.mu.Unlock()

	if seed != nil {
		if update != nil {
			update(*seed)
		}
		if terminal(seed) {
			p.finish(gen, seed)
			return
		}
	}

	go p.loop(ctx, gen, dataSourceID, stop)
}

// Stop tears down polling without firing terminal side effects. Safe to
// call in any state, including after a terminal transition already ran.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

// clearLocked resets all polling state. Caller holds p.mu.
func (p *Poller) clearLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.gen++
	p.jobID = 0
	p.snapshot = nil
	if p.state != StateIdle {
		p.state = StateStopped
	}
}

func terminal(st *api.IngestionStatus) bool {
	return !st.InProgress || st.Status.Terminal()
}

// loop polls until a terminal response, teardown, or context cancel.
// Fetches run inside the loop goroutine, so requests never overlap.
func (p *Poller) loop(ctx context.Context, gen, dataSourceID int, stop chan struct{}) {
	t := p.clock.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			p.Stop()
			return
		case <-t.C():
			st, err := p.fetch.GetIngestionProgress(ctx, dataSourceID)
			if err != nil {
				// Transient poll failures are silent to the user:
				// logged and retried on the next tick.
				p.logger.Warn("poll ingestion progress failed",
					"data_source_id", dataSourceID, "error", err)
				continue
			}
			if !p.apply(gen, st) {
				return
			}
		}
	}
}

// apply records a fetched snapshot. Returns false when the loop should
// exit: either the response is stale (job no longer tracked) or a
// terminal state was observed and handled.
func (p *Poller) apply(gen int, st *api.IngestionStatus) bool {
	p.mu.Lock()
	if gen != p.gen || p.state != StatePolling {
		// Stale response for a retired attach; discard.
		p.mu.Unlock()
		return false
	}
	p.snapshot = st
	update := p.onUpdate
	p.mu.Unlock()

	if update != nil {
		update(*st)
	}

	if terminal(st) {
		p.finish(gen, st)
		return false
	}
	return true
}

// finish runs the terminal transition for the given attach generation.
// Idempotent: a second terminal observation for the same job finds the
// generation retired and does nothing.
func (p *Poller) finish(gen int, st *api.IngestionStatus) {
	p.mu.Lock()
	if gen != p.gen || p.state != StatePolling {
		p.mu.Unlock()
		return
	}
	jobID := p.jobID
	done := p.onTerminal
	p.clearLocked()
	p.mu.Unlock()

	status := st.Status
	if status == "" || !status.Terminal() {
		// inProgress dropped before the status converged; treat the
		// job as completed unless the server reported an error.
		if st.Error != "" {
			status = api.JobFailed
		} else {
			status = api.JobCompleted
		}
	}

	p.logger.Info("ingestion tracking finished",
		"data_source_id", jobID, "status", status)

	if done != nil {
		done(Outcome{
			DataSourceID: jobID,
			Status:       status,
			Error:        st.Error,
			Last:         st,
		})
	}
}
