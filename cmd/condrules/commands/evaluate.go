package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/acptdev/condrules/internal/cli"
	"github.com/acptdev/condrules/internal/visibility"
)

var (
	page      string
	belongsTo string
	elementID string
	noCache   bool
	output    string
	showVals  bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <form.html>",
	Short: "Evaluate the visibility rules for a form",
	Long: `Scan a form, use the cached decision for the page or ask the rule
service, and print the decision. With --output the form is written back with
the decision applied.

Examples:
  condrules evaluate form.html --page 42 --belongs-to customPostType --element-id 42
  condrules evaluate form.html --page 42 --no-cache --output preview.html
  condrules evaluate form.html --page 42 --values --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		doc, err := readForm(args[0])
		if err != nil {
			return err
		}
		ev, err := newAjaxClient()
		if err != nil {
			return err
		}

		var cache visibility.Cache
		if !noCache {
			c, s, err := openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			cache = c
		}

		binding := visibility.Binding{Page: page, BelongsTo: belongsTo, ElementID: elementID}
		client, err := visibility.New(cmd.Context(), binding, doc, ev, cache, clientOptions()...)
		if err != nil {
			return err
		}
		client.Wait()
		defer client.Close()

		d := client.LastDecision()
		if d == nil {
			return errors.New("no decision available: the rule service did not answer (run with --verbose for details)")
		}

		if output != "" {
			if err := writeForm(doc, output); err != nil {
				return err
			}
		}
		if quiet || output == "-" {
			return nil
		}
		if showVals {
			return cli.PrintObservations(os.Stdout, client.Observations(), f)
		}
		return cli.PrintDecision(os.Stdout, d, f)
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&page, "page", "", "page id used as cache key (required)")
	evaluateCmd.Flags().StringVar(&belongsTo, "belongs-to", "", "entity the form belongs to (e.g. customPostType)")
	evaluateCmd.Flags().StringVar(&elementID, "element-id", "", "id of the edited element")
	evaluateCmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore and do not update the decision cache")
	evaluateCmd.Flags().StringVarP(&output, "output", "o", "", "write the form with the decision applied (- for stdout)")
	evaluateCmd.Flags().BoolVar(&showVals, "values", false, "print the observed values instead of the decision")
	_ = evaluateCmd.MarkFlagRequired("page")
	rootCmd.AddCommand(evaluateCmd)
}

