package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/corvid-labs/ragline/internal/track"
	"github.com/spf13/cobra"
)

var (
	codeName           string
	codeDirectory      string
	codeFiles          []string
	codeMaxDepth       int
	codeIncludeHeaders bool
)

var ingestCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Ingest a source code tree",
	Long: `Parse a source code directory or individual files and ingest the
extracted functions, classes and structs as a data source.

Code ingestion runs synchronously; the command reports extraction
statistics when the server is done.

Examples:
  ragline ingest code --name backend --dir ./src
  ragline ingest code --name utils --file ./util.go --file ./helpers.go`,
	RunE: runIngestCode,
}

func init() {
	ingestCodeCmd.Flags().StringVar(&codeName, "name", "", "data source name")
	ingestCodeCmd.Flags().StringVar(&codeDirectory, "dir", "", "directory to scan for source files")
	ingestCodeCmd.Flags().StringArrayVar(&codeFiles, "file", nil, "individual source file (repeatable)")
	ingestCodeCmd.Flags().IntVar(&codeMaxDepth, "max-depth", 0, "directory recursion depth limit")
	ingestCodeCmd.Flags().BoolVar(&codeIncludeHeaders, "include-headers", false, "include header files")
}

func runIngestCode(cmd *cobra.Command, args []string) error {
	trk, err := newTracker()
	if err != nil {
		return err
	}

	vals := cachedDefaults(track.KindCode, nil)
	if !cmd.Flags().Changed("name") && codeName == "" {
		codeName = vals["name"]
	}
	if !cmd.Flags().Changed("max-depth") && vals["max_depth"] != "" {
		if d, err := strconv.Atoi(vals["max_depth"]); err == nil {
			codeMaxDepth = d
		}
	}

	if codeName == "" {
		return fmt.Errorf("--name is required")
	}
	if codeDirectory == "" && len(codeFiles) == 0 {
		return fmt.Errorf("either --dir or --file is required")
	}
	if codeDirectory != "" {
		info, err := os.Stat(codeDirectory)
		if err != nil {
			return fmt.Errorf("invalid directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("not a directory: %s", codeDirectory)
		}
	}
	for _, f := range codeFiles {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("invalid file: %w", err)
		}
	}

	rememberForm(track.KindCode, map[string]string{
		"name":      codeName,
		"max_depth": strconv.Itoa(codeMaxDepth),
	})

	res, err := trk.coordinator.SubmitCode(cmd.Context(), api.CodeIngestionRequest{
		Name:           codeName,
		DirectoryPath:  codeDirectory,
		Files:          codeFiles,
		MaxDepth:       codeMaxDepth,
		IncludeHeaders: codeIncludeHeaders,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("code ingestion failed: %s", res.Error)
	}

	fmt.Println("Code ingestion complete.")
	if s := res.Stats; s != nil {
		fmt.Printf("  Files processed:     %d\n", s.FilesProcessed)
		fmt.Printf("  Functions extracted: %d\n", s.FunctionsExtracted)
		fmt.Printf("  Classes extracted:   %d\n", s.ClassesExtracted)
		fmt.Printf("  Structs extracted:   %d\n", s.StructsExtracted)
		fmt.Printf("  Summaries generated: %d\n", s.SummariesGenerated)
		fmt.Printf("  Embeddings created:  %d\n", s.EmbeddingsCreated)
		if len(s.Errors) > 0 {
			fmt.Printf("\nWarnings (%d):\n", len(s.Errors))
			for _, e := range s.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
	}
	return nil
}
