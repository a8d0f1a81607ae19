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
	gitName      string
	gitRepoURL   string
	gitBranch    string
	gitUsername  string
	gitToken     string
	gitLanguages []string
	gitMaxDepth  int
)

var ingestGitCmd = &cobra.Command{
	Use:   "git",
	Short: "Ingest a git repository",
	Long: `Clone and ingest a git repository as a data source.

The server clones the repository, processes its files and generates
embeddings; this command follows the job's progress until it finishes.
Private repositories need --username plus a token (prompted for when
not passed by flag; tokens are never cached).

Examples:
  ragline ingest git --name backend --repo-url https://github.com/acme/backend
  ragline ingest git --name docs --repo-url git@github.com:acme/docs --branch release
  ragline ingest git --name api --repo-url https://github.com/acme/api --language go --language proto`,
	RunE: runIngestGit,
}

func init() {
	ingestGitCmd.Flags().StringVar(&gitName, "name", "", "data source name")
	ingestGitCmd.Flags().StringVar(&gitRepoURL, "repo-url", "", "repository URL")
	ingestGitCmd.Flags().StringVar(&gitBranch, "branch", "", "branch to ingest (default main)")
	ingestGitCmd.Flags().StringVar(&gitUsername, "username", "", "username for private repositories")
	ingestGitCmd.Flags().StringVar(&gitToken, "token", "", "access token for private repositories")
	ingestGitCmd.Flags().StringSliceVar(&gitLanguages, "language", nil, "restrict ingestion to languages")
	ingestGitCmd.Flags().IntVar(&gitMaxDepth, "max-depth", 0, "max directory depth (0 = unlimited)")
}

func runIngestGit(cmd *cobra.Command, args []string) error {
	trk, err := newTracker()
	if err != nil {
		return err
	}

	vals := cachedDefaults(track.KindGit, map[string]string{"branch": "main"})
	if !cmd.Flags().Changed("name") && gitName == "" {
		gitName = vals["name"]
	}
	if !cmd.Flags().Changed("repo-url") && gitRepoURL == "" {
		gitRepoURL = vals["repo_url"]
	}
	if !cmd.Flags().Changed("branch") && gitBranch == "" {
		gitBranch = vals["branch"]
	}
	if !cmd.Flags().Changed("username") && gitUsername == "" {
		gitUsername = vals["username"]
	}
	if !cmd.Flags().Changed("language") && len(gitLanguages) == 0 && vals["languages"] != "" {
		gitLanguages = strings.Split(vals["languages"], ",")
	}
	if !cmd.Flags().Changed("max-depth") && gitMaxDepth == 0 {
		if d, err := strconv.Atoi(vals["max_depth"]); err == nil {
			gitMaxDepth = d
		}
	}

	// Validation failures never create a job.
	if gitName == "" {
		return fmt.Errorf("--name is required")
	}
	if gitRepoURL == "" {
		return fmt.Errorf("--repo-url is required")
	}

	if gitUsername != "" && gitToken == "" {
		gitToken, err = promptSecret("Git token: ")
		if err != nil {
			return err
		}
	}

	rememberForm(track.KindGit, map[string]string{
		"name":      gitName,
		"repo_url":  gitRepoURL,
		"branch":    gitBranch,
		"username":  gitUsername,
		"languages": strings.Join(gitLanguages, ","),
		"max_depth": strconv.Itoa(gitMaxDepth),
	})

	return runTracked(trk, func() (*track.Submission, error) {
		return trk.coordinator.SubmitGit(cmd.Context(), api.GitIngestionRequest{
			Name:           gitName,
			RepoURL:        gitRepoURL,
			Branch:         gitBranch,
			Username:       gitUsername,
			Token:          gitToken,
			LanguageFilter: gitLanguages,
			MaxDepth:       gitMaxDepth,
		})
	})
}
