package cli

import (
	"fmt"

	"github.com/corvid-labs/ragline/internal/track"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached form fields",
}

var cacheClearCmd = &cobra.Command{
	Use:       "clear <kind>",
	Short:     "Clear remembered form fields for an ingestion kind",
	ValidArgs: []string{track.KindGit, track.KindJira, track.KindConfluence, track.KindDocument, track.KindCode},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if err := openState(); err != nil {
		return err
	}
	if err := formCache.Clear(args[0]); err != nil {
		return err
	}
	fmt.Printf("Cleared cached %s form fields.\n", args[0])
	return nil
}
