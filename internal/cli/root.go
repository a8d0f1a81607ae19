// Package cli provides the command-line interface for ragline.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/corvid-labs/ragline/internal/api"
	"github.com/corvid-labs/ragline/internal/config"
	"github.com/corvid-labs/ragline/internal/formcache"
	"github.com/corvid-labs/ragline/internal/store"
	"github.com/corvid-labs/ragline/internal/track"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose       bool
	workspaceFlag int

	// Global config and clients
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	apiClient  *api.Client

	// Lazy-initialized local state
	stateStore *store.Badger
	formCache  *formcache.Cache
)

// workspaceKey is the state-store key holding the selected workspace id.
const workspaceKey = "settings:workspace"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "Client for the Ragline knowledge platform",
	Long: `Ragline is a command-line client for a RAG knowledge platform.

Ingest data sources (git repositories, JIRA projects, Confluence spaces,
documents, source code) into a workspace, follow long-running ingestion
jobs, and chat against the resulting knowledge base.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		if verbose {
			logger = logger.With("verbose", true)
		}
		slog.SetDefault(logger)

		apiClient = api.New(cfg.ServerURL, cfg.AuthToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stateStore != nil {
			if err := stateStore.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close state store: %v\n", err)
			}
			stateStore = nil
		}
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// openState lazily opens the local state store and form cache.
func openState() error {
	if stateStore != nil {
		return nil
	}
	s, err := store.Open(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	stateStore = s
	formCache = formcache.New(s)
	return nil
}

// resolveWorkspace picks the active workspace: the --workspace flag wins,
// then the persisted selection, then the configured default.
func resolveWorkspace() (int, error) {
	if workspaceFlag != 0 {
		return workspaceFlag, nil
	}
	if err := openState(); err != nil {
		return 0, err
	}
	var id int
	if err := stateStore.Get(workspaceKey, &id); err == nil && id != 0 {
		return id, nil
	}
	if cfg.WorkspaceID != 0 {
		return cfg.WorkspaceID, nil
	}
	return 0, fmt.Errorf("no workspace selected: pass --workspace, run 'ragline workspaces use <id>', or set RAGLINE_WORKSPACE_ID")
}

// tracker bundles the job-tracking components for one workspace.
type tracker struct {
	poller      *track.Poller
	coordinator *track.Coordinator
	canceller   *track.Canceller
	resumer     *track.Resumer
	workspaceID int
}

// newTracker wires poller, coordinator, canceller and resumer against
// the API client for the resolved workspace.
func newTracker() (*tracker, error) {
	workspaceID, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}
	if err := openState(); err != nil {
		return nil, err
	}

	poller := track.NewPoller(apiClient, nil, cfg.PollInterval, logger)
	coordinator := track.NewCoordinator(apiClient, poller, formCache, workspaceID, logger)
	canceller := track.NewCanceller(apiClient, poller, logger)
	resumer := track.NewResumer(apiClient, poller, logger)

	return &tracker{
		poller:      poller,
		coordinator: coordinator,
		canceller:   canceller,
		resumer:     resumer,
		workspaceID: workspaceID,
	}, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().IntVarP(&workspaceFlag, "workspace", "w", 0, "workspace id (overrides the persisted selection)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(embeddingsCmd)
	rootCmd.AddCommand(workspacesCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(cacheCmd)
}
