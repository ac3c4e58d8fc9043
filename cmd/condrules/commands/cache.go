package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acptdev/condrules/internal/cli"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear cached decisions",
	Long: `Inspect and clear the per-page decisions kept in the configured
storage backend (STORAGE_TYPE).

Examples:
  condrules cache list
  condrules cache get 42 --format json
  condrules cache clear 42`,
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <page>",
	Short: "Show the cached decision for a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		cache, s, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		d, ok := cache.Read(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("no cached decision for page %s", args[0])
		}
		if quiet {
			return nil
		}
		return cli.PrintDecision(os.Stdout, d, f)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <page>",
	Short: "Remove the cached decision for a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, s, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := cache.Clear(cmd.Context(), args[0]); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("Cleared cached decision for page %s\n", args[0])
		}
		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages with a cached decision",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		cache, s, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		pages, err := cache.Pages(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list cached pages: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintPages(os.Stdout, pages, f)
	},
}

func init() {
	cacheCmd.AddCommand(cacheGetCmd, cacheClearCmd, cacheListCmd)
	rootCmd.AddCommand(cacheCmd)
}
