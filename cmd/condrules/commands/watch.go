package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acptdev/condrules/internal/visibility"
	"github.com/acptdev/condrules/internal/watch"
)

var watchOutput string

var watchCmd = &cobra.Command{
	Use:   "watch <form.html>",
	Short: "Re-evaluate a form whenever the file changes",
	Long: `Watch a form file. Every saved edit is replayed as a change event:
evaluations are debounced (DEBOUNCE) and the form is re-rendered to --output
after each applied decision. Stop with Ctrl-C.

Examples:
  condrules watch form.html --page 42 --belongs-to customPostType --element-id 42 --output preview.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		live, err := readForm(args[0])
		if err != nil {
			return err
		}
		ev, err := newAjaxClient()
		if err != nil {
			return err
		}
		cache, s, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		onApply := func(d visibility.Decision) {
			if err := writeForm(live, watchOutput); err != nil {
				logger.Error().Err(err).Str("output", watchOutput).Msg("failed to write form")
				return
			}
			logger.Info().Int("targets", len(d)).Str("output", watchOutput).Msg("form updated")
		}

		binding := visibility.Binding{Page: page, BelongsTo: belongsTo, ElementID: elementID}
		client, err := visibility.New(ctx, binding, live, ev, cache, clientOptions(visibility.WithOnApply(onApply))...)
		if err != nil {
			return err
		}
		defer client.Close()

		events := make(chan visibility.ChangeEvent, 64)
		w := watch.NewWatcher(args[0], func(changes []watch.Change) {
			for _, ch := range changes {
				ctrl, ok := ch.ApplyTo(live)
				if !ok {
					continue
				}
				select {
				case events <- visibility.ChangeEvent{Kind: visibility.EventChange, Control: ctrl}:
				case <-ctx.Done():
					return
				}
			}
		}, watch.WithLogger(logger))
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		logger.Info().Str("form", args[0]).Str("page", page).Msg("watching for changes")
		if err := client.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&page, "page", "", "page id used as cache key (required)")
	watchCmd.Flags().StringVar(&belongsTo, "belongs-to", "", "entity the form belongs to")
	watchCmd.Flags().StringVar(&elementID, "element-id", "", "id of the edited element")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "file the rendered form is written to (required)")
	_ = watchCmd.MarkFlagRequired("page")
	_ = watchCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(watchCmd)
}
