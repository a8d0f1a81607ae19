package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/corvid-labs/ragline/internal/track"
	"github.com/spf13/cobra"
)

var (
	jiraName       string
	jiraProjectKey string
	jiraBaseURL    string
	jiraUsername   string
	jiraAPIToken   string
	jiraIssueTypes []string
	jiraTickets    []string
	jiraMaxResults int
)

var ingestJiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "Ingest a JIRA project",
	Long: `Ingest issues from a JIRA project as a data source.

By default all issues of the project are fetched; restrict with
--issue-type or import specific tickets with --ticket.

Examples:
  ragline ingest jira --name tickets --project-key ACME --base-url https://acme.atlassian.net
  ragline ingest jira --name bugs --project-key ACME --base-url https://acme.atlassian.net --issue-type Bug
  ragline ingest jira --name incident --project-key OPS --base-url https://acme.atlassian.net --ticket OPS-1423`,
	RunE: runIngestJira,
}

func init() {
	ingestJiraCmd.Flags().StringVar(&jiraName, "name", "", "data source name")
	ingestJiraCmd.Flags().StringVar(&jiraProjectKey, "project-key", "", "JIRA project key")
	ingestJiraCmd.Flags().StringVar(&jiraBaseURL, "base-url", "", "JIRA instance base URL")
	ingestJiraCmd.Flags().StringVar(&jiraUsername, "username", "", "JIRA account email")
	ingestJiraCmd.Flags().StringVar(&jiraAPIToken, "api-token", "", "JIRA API token")
	ingestJiraCmd.Flags().StringSliceVar(&jiraIssueTypes, "issue-type", nil, "restrict to issue types")
	ingestJiraCmd.Flags().StringSliceVar(&jiraTickets, "ticket", nil, "import specific ticket keys")
	ingestJiraCmd.Flags().IntVar(&jiraMaxResults, "max-results", 0, "limit fetched issues (0 = server default)")
}

func runIngestJira(cmd *cobra.Command, args []string) error {
	trk, err := newTracker()
	if err != nil {
		return err
	}

	vals := cachedDefaults(track.KindJira, nil)
	if !cmd.Flags().Changed("name") && jiraName == "" {
		jiraName = vals["name"]
	}
	if !cmd.Flags().Changed("project-key") && jiraProjectKey == "" {
		jiraProjectKey = vals["project_key"]
	}
	if !cmd.Flags().Changed("base-url") && jiraBaseURL == "" {
		jiraBaseURL = vals["base_url"]
	}
	if !cmd.Flags().Changed("username") && jiraUsername == "" {
		jiraUsername = vals["username"]
	}
	if !cmd.Flags().Changed("issue-type") && len(jiraIssueTypes) == 0 && vals["issue_types"] != "" {
		jiraIssueTypes = strings.Split(vals["issue_types"], ",")
	}
	if !cmd.Flags().Changed("max-results") && jiraMaxResults == 0 {
		if n, err := strconv.Atoi(vals["max_results"]); err == nil {
			jiraMaxResults = n
		}
	}

	if jiraName == "" {
		return fmt.Errorf("--name is required")
	}
	if jiraProjectKey == "" {
		return fmt.Errorf("--project-key is required")
	}
	if jiraBaseURL == "" {
		return fmt.Errorf("--base-url is required")
	}

	if jiraUsername != "" && jiraAPIToken == "" {
		jiraAPIToken, err = promptSecret("JIRA API token: ")
		if err != nil {
			return err
		}
	}

	rememberForm(track.KindJira, map[string]string{
		"name":        jiraName,
		"project_key": jiraProjectKey,
		"base_url":    jiraBaseURL,
		"username":    jiraUsername,
		"issue_types": strings.Join(jiraIssueTypes, ","),
		"max_results": strconv.Itoa(jiraMaxResults),
	})

	return runTracked(trk, func() (*track.Submission, error) {
		return trk.coordinator.SubmitJira(cmd.Context(), api.JiraIngestionRequest{
			Name:            jiraName,
			ProjectKey:      jiraProjectKey,
			BaseURL:         jiraBaseURL,
			Username:        jiraUsername,
			APIToken:        jiraAPIToken,
			IssueTypes:      jiraIssueTypes,
			SpecificTickets: jiraTickets,
			MaxResults:      jiraMaxResults,
		})
	})
}
