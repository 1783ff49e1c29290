package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"loanscore/internal/metrics"
	"loanscore/internal/ml"
	"loanscore/internal/server"
	"loanscore/internal/storage"
)

const driftCheckInterval = time.Minute

func (a *app) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.settings
			if listen != "" {
				s.ListenAddr = listen
			}

			b, err := loadBundle(s)
			if err != nil {
				return err
			}

			drift := ml.NewDriftDetector(b.Roles.Numerical, ml.DriftDetectionConfig{
				WindowSize:     s.DriftWindow,
				AlertThreshold: s.DriftAlertThreshold,
			})
			predOpts := []ml.Option{ml.WithDriftDetector(drift)}
			srvOpts := []server.Option{server.WithDriftDetector(drift)}

			if s.MetricsEnabled {
				mw := metrics.NewWrapper(metrics.New())
				predOpts = append(predOpts, ml.WithMetrics(mw))
				srvOpts = append(srvOpts, server.WithMetrics(mw, prometheus.DefaultGatherer))
			}

			store := initializeStorage(s.DataPath)
			if store != nil {
				defer store.Close()
				srvOpts = append(srvOpts, server.WithStore(store))
			}

			p, err := newPredictor(b, s, predOpts...)
			if err != nil {
				return err
			}
			srv := server.New(p, server.Config{
				ListenAddr:     s.ListenAddr,
				RequestTimeout: s.RequestTimeout,
				HistoryLimit:   s.HistoryLimit,
			}, srvOpts...)

			return run(cmd.Context(), srv, drift)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from LISTEN_ADDR)")
	return cmd
}

// initializeStorage opens the prediction log, or returns nil and keeps
// serving when it cannot be opened.
func initializeStorage(dataPath string) *storage.Store {
	if dataPath == "" {
		return nil
	}
	store, err := storage.New(dataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without prediction log")
		return nil
	}
	return store
}

func run(ctx context.Context, srv *server.Server, drift *ml.DriftDetector) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(driftCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				drift.DetectDrift()
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error().Err(serveErr).Msg("server failed")
		}
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
	cancel()
	wg.Wait()
	return serveErr
}
