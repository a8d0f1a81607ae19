package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var workspaceDescription string

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Manage workspaces",
}

var workspacesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces",
	RunE:  runWorkspacesList,
}

var workspacesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspacesCreate,
}

var workspacesUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Select the workspace used by subsequent commands",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspacesUse,
}

func init() {
	workspacesCreateCmd.Flags().StringVar(&workspaceDescription, "description", "", "workspace description")

	workspacesCmd.AddCommand(workspacesListCmd)
	workspacesCmd.AddCommand(workspacesCreateCmd)
	workspacesCmd.AddCommand(workspacesUseCmd)
}

func runWorkspacesList(cmd *cobra.Command, args []string) error {
	workspaces, err := apiClient.ListWorkspaces(cmd.Context())
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		fmt.Println("No workspaces. Create one with 'ragline workspaces create <name>'.")
		return nil
	}

	selected := 0
	if err := openState(); err == nil {
		_ = stateStore.Get(workspaceKey, &selected)
	}

	fmt.Printf("%-6s %-24s %s\n", "ID", "NAME", "DESCRIPTION")
	for _, w := range workspaces {
		marker := " "
		if w.ID == selected {
			marker = "*"
		}
		fmt.Printf("%-6d %-24s %s %s\n", w.ID, w.Name, w.Description, marker)
	}
	return nil
}

func runWorkspacesCreate(cmd *cobra.Command, args []string) error {
	ws, err := apiClient.CreateWorkspace(cmd.Context(), args[0], workspaceDescription)
	if err != nil {
		return err
	}
	fmt.Printf("Created workspace %d (%s).\n", ws.ID, ws.Name)
	return nil
}

func runWorkspacesUse(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid workspace id %q", args[0])
	}
	if err := openState(); err != nil {
		return err
	}
	if err := stateStore.Set(workspaceKey, id); err != nil {
		return fmt.Errorf("persist workspace selection: %w", err)
	}
	fmt.Printf("Workspace %d selected.\n", id)
	return nil
}
