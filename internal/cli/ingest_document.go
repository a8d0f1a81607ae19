package cli

import (
	"fmt"
	"os"

	"github.com/corvid-labs/ragline/internal/track"
	"github.com/spf13/cobra"
)

var documentName string

var ingestDocumentCmd = &cobra.Command{
	Use:   "document <file>...",
	Short: "Upload and ingest document files",
	Long: `Upload one or more document files (PDF, Markdown, text, ...) and
ingest them as data sources.

Files are submitted one at a time; a failed file does not abort the
batch, and a combined summary is reported at the end.

Examples:
  ragline ingest document --name rfc ./rfc-001.pdf
  ragline ingest document --name specs ./specs/*.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngestDocument,
}

func init() {
	ingestDocumentCmd.Flags().StringVar(&documentName, "name", "", "data source name")
}

func runIngestDocument(cmd *cobra.Command, args []string) error {
	trk, err := newTracker()
	if err != nil {
		return err
	}

	vals := cachedDefaults(track.KindDocument, nil)
	if !cmd.Flags().Changed("name") && documentName == "" {
		documentName = vals["name"]
	}
	if documentName == "" {
		return fmt.Errorf("--name is required")
	}

	// Validate paths up front; a missing file is a validation error,
	// not a batch failure.
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("invalid file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("not a file: %s", path)
		}
	}

	rememberForm(track.KindDocument, map[string]string{
		"name": documentName,
	})

	batch, err := trk.coordinator.SubmitDocuments(cmd.Context(), documentName, args)
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %d of %d files (%d documents ingested).\n",
		batch.Succeeded, batch.Submitted, batch.Documents)
	if batch.Failed > 0 {
		fmt.Printf("\nFailed (%d):\n", batch.Failed)
		for _, e := range batch.Errors {
			fmt.Printf("  - %s\n", e)
		}
		return fmt.Errorf("%d of %d files failed", batch.Failed, batch.Submitted)
	}
	return nil
}
