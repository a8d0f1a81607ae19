package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/corvid-labs/ragline/internal/api"
	"github.com/corvid-labs/ragline/internal/track"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// progressMsg carries a fresh poll snapshot.
type progressMsg api.IngestionStatus

// outcomeMsg carries the terminal outcome of the tracked job.
type outcomeMsg track.Outcome

// cancelFailedMsg reports a cancel request that errored; polling is
// still running.
type cancelFailedMsg struct {
	err error
}

// followModel is the bubbletea model for live ingestion progress.
type followModel struct {
	trk        *tracker
	jobID      int
	events     chan tea.Msg
	snapshot   *api.IngestionStatus
	outcome    *track.Outcome
	progress   progress.Model
	theme      Theme
	cancelErr  error
	cancelling bool
	quitting   bool
}

// newFollowModel creates a progress model for one tracked job.
func newFollowModel(trk *tracker, jobID int, seed *api.IngestionStatus, events chan tea.Msg) followModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return followModel{
		trk:      trk,
		jobID:    jobID,
		events:   events,
		snapshot: seed,
		progress: prog,
		theme:    defaultTheme,
	}
}

// waitEvent delivers the next poller/coordinator event to the UI.
func waitEvent(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Init returns the initial command (start listening for events).
func (m followModel) Init() tea.Cmd {
	return tea.Batch(
		waitEvent(m.events),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m followModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "c":
			if !m.cancelling && m.outcome == nil {
				m.cancelling = true
				m.cancelErr = nil
				return m, m.cancelJob()
			}
		}

	case progressMsg:
		st := api.IngestionStatus(msg)
		m.snapshot = &st
		return m, waitEvent(m.events)

	case outcomeMsg:
		o := track.Outcome(msg)
		m.outcome = &o
		return m, tea.Quit

	case cancelFailedMsg:
		// The job was not confirmed cancelled; keep polling and let the
		// user retry or wait for natural completion.
		m.cancelling = false
		m.cancelErr = msg.err
		return m, waitEvent(m.events)

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// cancelJob requests cancellation of the tracked job. On ack the
// coordinator emits a cancelled outcome through the event channel;
// whichever of cancel and natural completion lands first wins.
func (m followModel) cancelJob() tea.Cmd {
	trk := m.trk
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		id, ok, err := trk.canceller.Cancel(ctx)
		if err != nil {
			return cancelFailedMsg{err: err}
		}
		if ok {
			trk.coordinator.ConfirmCancelled(ctx, id)
		}
		// Not tracking anymore: natural completion already won and the
		// outcome is on its way through the event channel.
		return nil
	}
}

// View renders the progress display.
func (m followModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m followModel) renderContent() string {
	if m.outcome != nil || m.quitting {
		return m.finalView()
	}

	if m.snapshot == nil {
		return fmt.Sprintf("Tracking ingestion %d...\n", m.jobID)
	}

	st := m.snapshot
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", displayStatus(st.Status)))

	var line string
	if p := st.Progress; p != nil {
		stage := fmt.Sprintf("Stage %d/%d %s", p.StageNum, p.TotalStages, p.Stage)
		bar := m.progress.ViewAs(p.Percent / 100)
		counts := ""
		if p.Total > 0 {
			counts = fmt.Sprintf(" %d/%d", p.Current, p.Total)
		}
		line = fmt.Sprintf("%s %s %s%s", status, stage, bar, counts)
		if p.Message != "" {
			line += "\n" + p.Message
		}
	} else {
		line = fmt.Sprintf("%s waiting for progress...", status)
	}

	hint := "Press c to cancel, q to continue in background"
	if m.cancelling {
		hint = "Cancelling..."
	}
	out := line + "\n" + m.theme.hintStyle().Render(hint) + "\n"

	if m.cancelErr != nil {
		out += m.theme.errorStyle().Render(fmt.Sprintf("Cancel failed: %v", m.cancelErr)) + "\n"
	}
	return out
}

// finalView renders the completion message.
func (m followModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nIngestion %d continues on the server.\nUse 'ragline jobs' to check on it.\n", m.jobID)
		return m.theme.hintStyle().Render(msg)
	}

	o := m.outcome
	switch {
	case o.Cancelled:
		return fmt.Sprintf("\nIngestion %d cancelled.\n", o.DataSourceID)
	case o.Succeeded():
		return m.theme.completedStyle().Render("✓ Ingestion completed") + "\n"
	default:
		msg := o.Error
		if msg == "" {
			msg = string(o.Status)
		}
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Ingestion failed: %s\n", msg))
	}
}

// displayStatus folds cancelled into failed for display.
func displayStatus(s api.JobStatus) api.JobStatus {
	if s == api.JobCancelled {
		return api.JobFailed
	}
	if s == "" {
		return api.JobProcessing
	}
	return s
}

// followJob runs the interactive progress UI for a tracked job and
// returns an error when the job failed. The event channel must already
// be wired to the tracker's callbacks.
func followJob(trk *tracker, jobID int, seed *api.IngestionStatus, events chan tea.Msg) error {
	model := newFollowModel(trk, jobID, seed, events)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(followModel); ok {
		// Detach with q/Ctrl+C: the job continues server-side.
		if m.quitting {
			return nil
		}
		if o := m.outcome; o != nil && !o.Cancelled && !o.Succeeded() {
			if o.Error != "" {
				return fmt.Errorf("ingestion failed: %s", o.Error)
			}
			return fmt.Errorf("ingestion failed with status %s", o.Status)
		}
	}

	return nil
}

// wireEvents registers tracker callbacks that feed the progress UI.
// Progress updates are dropped rather than blocking the poller when the
// consumer lags; the terminal outcome always lands on the channel, with
// stale updates evicted to make room if the buffer is full.
func wireEvents(trk *tracker) chan tea.Msg {
	events := make(chan tea.Msg, 16)
	trk.poller.OnUpdate(func(st api.IngestionStatus) {
		select {
		case events <- progressMsg(st):
		default:
		}
	})
	trk.coordinator.OnOutcome(func(o track.Outcome) {
		// No further updates arrive once the outcome fires, so evicting
		// one queued message per attempt frees a slot in bounded time.
		for {
			select {
			case events <- outcomeMsg(o):
				return
			default:
			}
			select {
			case <-events:
			default:
			}
		}
	})
	return events
}

// plainFollow prints progress line by line for non-interactive use.
func plainFollow(jobID int, events chan tea.Msg) error {
	fmt.Printf("Tracking ingestion %d...\n", jobID)
	for msg := range events {
		switch msg := msg.(type) {
		case progressMsg:
			st := api.IngestionStatus(msg)
			if p := st.Progress; p != nil {
				fmt.Printf("[%s] stage %d/%d %s: %.0f%%", displayStatus(st.Status), p.StageNum, p.TotalStages, p.Stage, p.Percent)
				if p.Total > 0 {
					fmt.Printf(" (%d/%d)", p.Current, p.Total)
				}
				if p.Message != "" {
					fmt.Printf(" - %s", p.Message)
				}
				fmt.Println()
			}
		case outcomeMsg:
			o := track.Outcome(msg)
			switch {
			case o.Cancelled:
				fmt.Printf("Ingestion %d cancelled.\n", o.DataSourceID)
				return nil
			case o.Succeeded():
				fmt.Println("Ingestion completed.")
				return nil
			default:
				if o.Error != "" {
					return fmt.Errorf("ingestion failed: %s", o.Error)
				}
				return fmt.Errorf("ingestion failed with status %s", o.Status)
			}
		}
	}
	return nil
}
