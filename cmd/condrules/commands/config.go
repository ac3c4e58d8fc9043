package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/acptdev/condrules/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after applying .env, environment variables and
flags. Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		settings := map[string]string{
			"APP_ENV":                     cfg.AppEnv,
			"SITE_URL":                    cfg.SiteURL,
			"AJAX_URL":                    cfg.AjaxURL,
			"AJAX_COOKIE":                 mask(cfg.AjaxCookie),
			"HTTP_TIMEOUT":                cfg.HTTPTimeout.String(),
			"DEBOUNCE":                    cfg.Debounce.String(),
			"STRICT_ORDERING":             strconv.FormatBool(cfg.StrictOrdering),
			"STORAGE_TYPE":                cfg.StorageType,
			"STORAGE_DIR":                 cfg.StorageDir,
			"REDIS_ADDR":                  cfg.RedisAddr,
			"REDIS_PASSWORD":              mask(cfg.RedisPassword),
			"REDIS_DB":                    strconv.Itoa(cfg.RedisDB),
			"REDIS_NAMESPACE":             cfg.RedisNamespace,
			"DB_DSN":                      mask(cfg.DatabaseDSN),
			"HTTP_ADDR":                   cfg.HTTPAddr,
			"METRICS_ADDR":                cfg.MetricsAddr,
			"RATE_LIMIT_PER_IP":           strconv.Itoa(cfg.RateLimitPerIP),
			"LOG_LEVEL":                   cfg.LogLevel,
			"LOG_FORMAT":                  cfg.LogFormat,
			"OTEL_EXPORTER_OTLP_ENDPOINT": cfg.OTLPEndpoint,
		}
		return cli.PrintSettings(os.Stdout, settings, f)
	},
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
