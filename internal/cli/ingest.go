package cli

import (
	"fmt"
	"sync"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/corvid-labs/ragline/internal/track"
	"github.com/spf13/cobra"
)

var (
	ingestPlain  bool
	ingestDetach bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a data source into the active workspace",
	Long: `Ingest a data source into the active workspace.

Asynchronous kinds (git, jira) start a server-side job and follow its
progress until completion; synchronous kinds (confluence, document, code)
report their result immediately.

Examples:
  ragline ingest git --name backend --repo-url https://github.com/acme/backend
  ragline ingest jira --name tickets --project-key ACME --base-url https://acme.atlassian.net
  ragline ingest confluence --name wiki --space-key ENG
  ragline ingest document --name specs ./rfc-001.pdf ./rfc-002.pdf
  ragline ingest code --name services --dir ./services`,
}

func init() {
	ingestCmd.PersistentFlags().BoolVar(&ingestPlain, "plain", false, "line-based progress output (no interactive UI)")
	ingestCmd.PersistentFlags().BoolVar(&ingestDetach, "detach", false, "start the job and exit without following progress")

	ingestCmd.AddCommand(ingestGitCmd)
	ingestCmd.AddCommand(ingestJiraCmd)
	ingestCmd.AddCommand(ingestConfluenceCmd)
	ingestCmd.AddCommand(ingestDocumentCmd)
	ingestCmd.AddCommand(ingestCodeCmd)
}

// cachedDefaults merges a kind's cached form fields over defaults.
// Cache failures degrade to defaults.
func cachedDefaults(kind string, defaults map[string]string) map[string]string {
	if formCache == nil {
		return defaults
	}
	vals, err := formCache.Load(kind, defaults)
	if err != nil {
		logger.Warn("load cached form failed", "kind", kind, "error", err)
		return defaults
	}
	return vals
}

// rememberForm persists the kind's current field values. Sensitive and
// file-valued fields are stripped by the cache itself.
func rememberForm(kind string, fields map[string]string) {
	if formCache == nil {
		return
	}
	if err := formCache.Put(kind, fields); err != nil {
		logger.Warn("cache form failed", "kind", kind, "error", err)
	}
}

// runTracked submits an asynchronous ingestion and follows the job.
// Events are wired before the submit so no early update is lost.
func runTracked(trk *tracker, submit func() (*track.Submission, error)) error {
	events := wireEvents(trk)

	var mu sync.Mutex
	var refreshed []api.DataSource
	trk.coordinator.OnSources(func(s []api.DataSource) {
		mu.Lock()
		refreshed = s
		mu.Unlock()
	})

	sub, err := submit()
	if err != nil {
		return err
	}

	if !sub.Async {
		return reportSyncResult(sub.Result)
	}

	if ingestDetach {
		fmt.Printf("Started ingestion %d. Use 'ragline jobs' to check on it.\n", sub.DataSourceID)
		return nil
	}

	if ingestPlain {
		err = plainFollow(sub.DataSourceID, events)
	} else {
		err = followJob(trk, sub.DataSourceID, nil, events)
	}

	mu.Lock()
	sources := refreshed
	mu.Unlock()
	if sources != nil {
		fmt.Printf("Workspace now has %d data sources.\n", len(sources))
	}
	return err
}

// reportSyncResult prints the outcome of a synchronous start response.
// A job-level failure is an error distinct from transport failures.
func reportSyncResult(res *api.StartResult) error {
	if res == nil {
		return nil
	}
	if !res.Success || res.Error != "" {
		if res.Error != "" {
			return fmt.Errorf("ingestion failed: %s", res.Error)
		}
		return fmt.Errorf("ingestion failed")
	}
	fmt.Printf("Ingested %d documents.\n", res.DocumentsCount)
	return nil
}
