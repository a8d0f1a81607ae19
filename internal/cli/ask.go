package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askStream bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the workspace's knowledge base",
	Long: `Ask a question answered from the documents ingested into the
workspace.

With --stream the answer is printed token by token as the server
generates it.

Examples:
  ragline ask "how does the auth middleware work?"
  ragline ask --stream how do I configure retries`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer token by token")
}

func runAsk(cmd *cobra.Command, args []string) error {
	workspaceID, err := resolveWorkspace()
	if err != nil {
		return err
	}
	question := strings.Join(args, " ")

	if askStream {
		err := apiClient.AskStream(cmd.Context(), workspaceID, question, func(token string) error {
			fmt.Print(token)
			return nil
		})
		fmt.Println()
		return err
	}

	answer, err := apiClient.Ask(cmd.Context(), workspaceID, question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range answer.Sources {
			fmt.Printf("  - %s (source %d, score %.2f)\n", s.DocumentName, s.DataSourceID, s.Score)
		}
	}
	return nil
}
