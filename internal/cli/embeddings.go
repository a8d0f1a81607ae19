package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var embeddingsFullContent bool

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Browse generated embeddings",
	Long: `Browse the embeddings generated for the workspace's documents.

'list' shows every indexed document with its chunk count, 'chunks'
shows the embedded chunks of one document, and 'stats' aggregates
counts by data source and file type.

Examples:
  ragline embeddings list
  ragline embeddings chunks 128
  ragline embeddings stats`,
}

var embeddingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents and their chunk counts",
	RunE:  runEmbeddingsList,
}

var embeddingsChunksCmd = &cobra.Command{
	Use:   "chunks <document-id>",
	Short: "Show the embedded chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbeddingsChunks,
}

var embeddingsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show embedding statistics for the workspace",
	RunE:  runEmbeddingsStats,
}

func init() {
	embeddingsChunksCmd.Flags().BoolVar(&embeddingsFullContent, "full", false, "print full chunk content instead of a preview")

	embeddingsCmd.AddCommand(embeddingsListCmd)
	embeddingsCmd.AddCommand(embeddingsChunksCmd)
	embeddingsCmd.AddCommand(embeddingsStatsCmd)
}

func runEmbeddingsList(cmd *cobra.Command, args []string) error {
	workspaceID, err := resolveWorkspace()
	if err != nil {
		return err
	}

	docs, err := apiClient.ListEmbeddedDocuments(cmd.Context(), workspaceID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No embedded documents in this workspace.")
		return nil
	}

	fmt.Printf("%-8s %-32s %-10s %-8s %s\n", "ID", "TITLE", "TYPE", "CHUNKS", "SOURCE")
	for _, d := range docs {
		fmt.Printf("%-8d %-32s %-10s %-8d %s\n",
			d.ID, truncate(d.Title, 32), d.FileType, d.ChunkCount, d.DataSourceName)
	}
	fmt.Printf("\n%d document(s). Use 'ragline embeddings chunks <id>' to inspect one.\n", len(docs))
	return nil
}

func runEmbeddingsChunks(cmd *cobra.Command, args []string) error {
	docID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	chunks, err := apiClient.GetDocumentChunks(cmd.Context(), docID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		fmt.Println("Document has no embedded chunks.")
		return nil
	}

	for _, ch := range chunks {
		lines := ""
		if ch.StartLine != nil && ch.EndLine != nil {
			lines = fmt.Sprintf(" (lines %d-%d)", *ch.StartLine, *ch.EndLine)
		}
		fmt.Printf("--- chunk %d%s\n", ch.ChunkIndex, lines)
		if embeddingsFullContent {
			fmt.Println(ch.Content)
		} else {
			fmt.Println(truncate(strings.ReplaceAll(ch.Content, "\n", " "), 120))
		}
	}
	fmt.Printf("\n%d chunk(s).\n", len(chunks))
	return nil
}

func runEmbeddingsStats(cmd *cobra.Command, args []string) error {
	workspaceID, err := resolveWorkspace()
	if err != nil {
		return err
	}

	stats, err := apiClient.GetEmbeddingStats(cmd.Context(), workspaceID)
	if err != nil {
		return err
	}

	fmt.Printf("Documents: %d\nChunks:    %d\n", stats.TotalDocuments, stats.TotalChunks)

	if len(stats.BySource) > 0 {
		fmt.Printf("\n%-24s %-12s %-10s %s\n", "SOURCE", "TYPE", "DOCUMENTS", "CHUNKS")
		for _, s := range stats.BySource {
			fmt.Printf("%-24s %-12s %-10d %d\n", s.Name, s.SourceType, s.Documents, s.Chunks)
		}
	}

	if len(stats.ByType) > 0 {
		types := make([]string, 0, len(stats.ByType))
		for ft := range stats.ByType {
			types = append(types, ft)
		}
		sort.Strings(types)

		fmt.Printf("\n%-12s %-10s %s\n", "FILE TYPE", "DOCUMENTS", "CHUNKS")
		for _, ft := range types {
			s := stats.ByType[ft]
			fmt.Printf("%-12s %-10d %d\n", ft, s.Documents, s.Chunks)
		}
	}
	return nil
}

// truncate shortens s for table display.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
