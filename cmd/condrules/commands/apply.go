package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acptdev/condrules/internal/visibility"
)

var applyOutput string

var applyCmd = &cobra.Command{
	Use:   "apply <form.html> <decision.json>",
	Short: "Apply a saved decision to a form",
	Long: `Apply a decision JSON object (as returned by checkIsVisibleAction) to a
form without contacting the rule service.

Examples:
  condrules apply form.html decision.json
  condrules apply form.html decision.json --output preview.html`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readForm(args[0])
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read decision: %w", err)
		}
		d, err := visibility.ParseDecision(raw)
		if err != nil {
			return err
		}

		visibility.ApplyDecision(doc, d, logger)
		logger.Debug().Int("targets", len(d)).Msg("decision applied")
		return writeForm(doc, applyOutput)
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "-", "output file (- for stdout)")
	rootCmd.AddCommand(applyCmd)
}
