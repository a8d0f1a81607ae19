package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage data sources in the workspace",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List data sources",
	RunE:  runSourcesList,
}

var sourcesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a data source and its indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesDelete,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesDeleteCmd)
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	workspaceID, err := resolveWorkspace()
	if err != nil {
		return err
	}

	sources, err := apiClient.ListDataSources(cmd.Context(), workspaceID)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No data sources in this workspace.")
		return nil
	}

	fmt.Printf("%-6s %-24s %-12s %-12s %s\n", "ID", "NAME", "TYPE", "STATUS", "LAST INGESTED")
	for _, s := range sources {
		last := "-"
		if s.LastIngested != nil {
			last = s.LastIngested.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-6d %-24s %-12s %-12s %s\n", s.ID, s.Name, s.SourceType, s.Status, last)
	}
	return nil
}

func runSourcesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid data source id %q", args[0])
	}

	if err := apiClient.DeleteDataSource(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted data source %d.\n", id)
	return nil
}
