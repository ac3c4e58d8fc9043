package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acptdev/condrules/internal/cli"
)

var translationsCmd = &cobra.Command{
	Use:   "translations [text...]",
	Short: "Fetch the plugin's admin translations",
	Long: `Fetch the admin UI translations (languagesAction). With arguments, print
the translation of each one, falling back to the text itself.

Examples:
  condrules translations --format yaml
  condrules translations "Save" "Cancel"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newAjaxClient()
		if err != nil {
			return err
		}
		tr, err := c.FetchTranslations(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch translations: %w", err)
		}
		if quiet {
			return nil
		}
		if len(args) == 0 {
			return cli.PrintTranslations(os.Stdout, tr, f)
		}
		for _, text := range args {
			fmt.Println(tr.Translate(text))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translationsCmd)
}
