package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/acptdev/condrules/internal/config"
	"github.com/acptdev/condrules/internal/logging"
	"github.com/acptdev/condrules/internal/telemetry"
)

var (
	// Global flags
	ajaxURL     string
	siteURL     string
	storageType string
	format      string
	quiet       bool
	verbose     bool

	// Set by PersistentPreRunE
	cfg           *config.Config
	logger        zerolog.Logger
	traceShutdown func(context.Context) error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "condrules",
	Short: "Evaluate ACPT conditional visibility rules against HTML forms",
	Long: `condrules reads ACPT meta box forms, asks the WordPress admin-ajax
endpoint which fields should be visible, and applies the answer by toggling
the "hidden" class. Decisions are cached per page.

Examples:
  condrules evaluate form.html --page 42 --belongs-to customPostType --element-id 42
  condrules apply form.html decision.json --output preview.html
  condrules watch form.html --page 42 --output preview.html
  condrules cache list
  condrules serve`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if traceShutdown == nil {
			return nil
		}
		return traceShutdown(cmd.Context())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ajaxURL, "ajax-url", "", "admin-ajax endpoint (overrides AJAX_URL)")
	rootCmd.PersistentFlags().StringVar(&siteURL, "site-url", "", "WordPress site URL (overrides SITE_URL)")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "cache backend: memory, file, redis, postgres (overrides STORAGE_TYPE)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if ajaxURL != "" {
		loaded.AjaxURL = ajaxURL
	}
	if siteURL != "" {
		loaded.SiteURL = siteURL
	}
	if storageType != "" {
		loaded.StorageType = storageType
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	logger = logging.New(level, cfg.LogFormat, os.Stderr)

	shutdown, err := telemetry.InitTracing(cmd.Context(), cfg.OTLPEndpoint, strings.HasPrefix(cfg.OTLPEndpoint, "http://"))
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	traceShutdown = shutdown
	return nil
}
