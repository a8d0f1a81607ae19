package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a running ingestion job",
	Long: `Request cancellation of a running ingestion job.

Without an argument the first active job in the workspace is cancelled.
Cancellation is best-effort server-side; the job stops at the next
checkpoint and partial data may remain as a data source.

Examples:
  ragline cancel
  ragline cancel 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	trk, err := newTracker()
	if err != nil {
		return err
	}

	var jobID int
	if len(args) == 1 {
		jobID, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid job id %q", args[0])
		}
	} else {
		active, err := apiClient.GetActiveIngestions(cmd.Context(), trk.workspaceID)
		if err != nil {
			return fmt.Errorf("list active ingestions: %w", err)
		}
		if len(active) == 0 {
			fmt.Println("No active ingestion jobs.")
			return nil
		}
		jobID = active[0].DataSourceID
	}

	if err := trk.canceller.CancelJob(cmd.Context(), jobID); err != nil {
		return err
	}

	fmt.Printf("Cancellation requested for job %d.\n", jobID)
	return nil
}
