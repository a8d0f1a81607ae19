package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	jobsAttach bool
	jobsPlain  bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List active ingestion jobs",
	Long: `List ingestion jobs currently running in the workspace.

With --attach, reattach to the first active job and follow its progress
as if it had been started from this terminal.

Examples:
  ragline jobs
  ragline jobs --attach`,
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().BoolVar(&jobsAttach, "attach", false, "follow the first active job")
	jobsCmd.Flags().BoolVar(&jobsPlain, "plain", false, "line-based progress output (no interactive UI)")
}

func runJobs(cmd *cobra.Command, args []string) error {
	trk, err := newTracker()
	if err != nil {
		return err
	}

	if jobsAttach {
		return attachFirstJob(cmd, trk)
	}

	active, err := apiClient.GetActiveIngestions(cmd.Context(), trk.workspaceID)
	if err != nil {
		return fmt.Errorf("list active ingestions: %w", err)
	}
	if len(active) == 0 {
		fmt.Println("No active ingestion jobs.")
		return nil
	}

	fmt.Printf("%-8s %-12s %-20s %s\n", "ID", "STATUS", "STAGE", "PROGRESS")
	for _, st := range active {
		stage, prog := "-", "-"
		if p := st.Progress; p != nil {
			stage = fmt.Sprintf("%s (%d/%d)", p.Stage, p.StageNum, p.TotalStages)
			prog = fmt.Sprintf("%.0f%%", p.Percent)
			if p.Total > 0 {
				prog = fmt.Sprintf("%.0f%% (%d/%d)", p.Percent, p.Current, p.Total)
			}
		}
		fmt.Printf("%-8d %-12s %-20s %s\n", st.DataSourceID, st.Status, stage, prog)
	}
	fmt.Printf("\n%d active job(s). Use 'ragline jobs --attach' to follow.\n", len(active))
	return nil
}

// attachFirstJob reattaches to the first active job, seeding the view
// with the already-known snapshot so the UI never starts blank.
func attachFirstJob(cmd *cobra.Command, trk *tracker) error {
	events := wireEvents(trk)

	seed, ok := trk.resumer.Resume(cmd.Context(), trk.workspaceID)
	if !ok {
		fmt.Println("No active ingestion jobs.")
		return nil
	}

	fmt.Printf("Attached to job %d.\n", seed.DataSourceID)
	if jobsPlain {
		return plainFollow(seed.DataSourceID, events)
	}
	return followJob(trk, seed.DataSourceID, seed, events)
}
