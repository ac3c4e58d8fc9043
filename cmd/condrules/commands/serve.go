package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/acptdev/condrules/internal/api"
	"github.com/acptdev/condrules/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the preview API and the metrics endpoint",
	Long: `Serve the preview API on HTTP_ADDR and prometheus metrics on
METRICS_ADDR until interrupted.

Endpoints:
  GET    /healthz
  POST   /v1/render
  GET    /v1/cache
  GET    /v1/cache/{page}
  DELETE /v1/cache/{page}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ev, err := newAjaxClient()
		if err != nil {
			return err
		}
		cache, s, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		telemetry.Init()
		srvAPI := api.NewServer(ev, cache, cfg.RateLimitPerIP, logger)

		apiSrv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srvAPI.Router(),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, srv := range []*http.Server{apiSrv, metricsSrv} {
			g.Go(func() error {
				logger.Info().Str("addr", srv.Addr).Msg("listening")
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		}
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return errors.Join(apiSrv.Shutdown(shutCtx), metricsSrv.Shutdown(shutCtx))
		})

		err = g.Wait()
		logger.Info().Msg("stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
