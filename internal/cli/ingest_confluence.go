package cli

import (
	"fmt"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/corvid-labs/ragline/internal/track"
	"github.com/spf13/cobra"
)

var (
	confluenceName     string
	confluenceSpaceKey string
	confluenceBaseURL  string
	confluenceUsername string
	confluenceAPIToken string
)

var ingestConfluenceCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Ingest a Confluence space",
	Long: `Ingest all pages of a Confluence space as a data source.

This kind completes synchronously on the server; the command reports the
number of ingested documents when it returns.

Examples:
  ragline ingest confluence --name wiki --space-key ENG
  ragline ingest confluence --name handbook --space-key HR --base-url https://acme.atlassian.net/wiki`,
	RunE: runIngestConfluence,
}

func init() {
	ingestConfluenceCmd.Flags().StringVar(&confluenceName, "name", "", "data source name")
	ingestConfluenceCmd.Flags().StringVar(&confluenceSpaceKey, "space-key", "", "Confluence space key")
	ingestConfluenceCmd.Flags().StringVar(&confluenceBaseURL, "base-url", "", "Confluence base URL")
	ingestConfluenceCmd.Flags().StringVar(&confluenceUsername, "username", "", "Confluence account email")
	ingestConfluenceCmd.Flags().StringVar(&confluenceAPIToken, "api-token", "", "Confluence API token")
}

func runIngestConfluence(cmd *cobra.Command, args []string) error {
	trk, err := newTracker()
	if err != nil {
		return err
	}

	vals := cachedDefaults(track.KindConfluence, nil)
	if !cmd.Flags().Changed("name") && confluenceName == "" {
		confluenceName = vals["name"]
	}
	if !cmd.Flags().Changed("space-key") && confluenceSpaceKey == "" {
		confluenceSpaceKey = vals["space_key"]
	}
	if !cmd.Flags().Changed("base-url") && confluenceBaseURL == "" {
		confluenceBaseURL = vals["base_url"]
	}
	if !cmd.Flags().Changed("username") && confluenceUsername == "" {
		confluenceUsername = vals["username"]
	}

	if confluenceName == "" {
		return fmt.Errorf("--name is required")
	}
	if confluenceSpaceKey == "" {
		return fmt.Errorf("--space-key is required")
	}

	if confluenceUsername != "" && confluenceAPIToken == "" {
		confluenceAPIToken, err = promptSecret("Confluence API token: ")
		if err != nil {
			return err
		}
	}

	rememberForm(track.KindConfluence, map[string]string{
		"name":      confluenceName,
		"space_key": confluenceSpaceKey,
		"base_url":  confluenceBaseURL,
		"username":  confluenceUsername,
	})

	sub, err := trk.coordinator.SubmitConfluence(cmd.Context(), api.ConfluenceIngestionRequest{
		Name:     confluenceName,
		SpaceKey: confluenceSpaceKey,
		BaseURL:  confluenceBaseURL,
		Username: confluenceUsername,
		APIToken: confluenceAPIToken,
	})
	if err != nil {
		return err
	}
	return reportSyncResult(sub.Result)
}
