package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	config "clinic-queue.com/clinic-queue/internal/configs"
	httpapi "clinic-queue.com/clinic-queue/internal/http"
	"clinic-queue.com/clinic-queue/internal/metrics"
	"clinic-queue.com/clinic-queue/internal/queue"
	repository "clinic-queue.com/clinic-queue/internal/repositories"
	"clinic-queue.com/clinic-queue/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the patient queue HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}

		if err := config.Migrate(db); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var sequencer queue.NumberSequencer
		if cfg.TokenSequencer == config.SequencerRedis {
			redisClient, err := config.NewRedisClient(cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			sequencer = queue.NewRedisNumberSequencer(redisClient, cfg.RedisSequenceKey)
		}

		tokenRepo := repository.NewTokenRepository(db)
		m := metrics.New()

		queueService := services.NewQueueService(tokenRepo, sequencer, logger, m, services.QueueOptions{
			NumberRetries:     cfg.NumberRetries,
			AdvanceRetries:    cfg.AdvanceRetries,
			StrictTransitions: cfg.StrictTransitions,
			TimestampFallback: cfg.TimestampFallback,
		})

		if err := queueService.SyncSequencer(ctx); err != nil {
			return errors.Wrap(err, "failed to sync token sequencer")
		}

		e := echo.New()
		e.HideBanner = true
		httpapi.Register(e, httpapi.NewHandler(queueService), httpapi.RouteOptions{
			RateLimitPerMinute: cfg.RateLimit,
			StaticDir:          cfg.StaticDir,
			Debug:              cfg.IsDevelopment(),
			Logger:             logger,
			Metrics:            m,
		})

		srv := &http.Server{
			Addr: cfg.AppURL,
			Handler: cors.New(cors.Options{
				AllowedOrigins:   cfg.CORSAllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
				AllowedHeaders:   []string{"Content-Type", "Authorization"},
				AllowCredentials: true,
			}).Handler(e),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.WithField("addr", cfg.AppURL).WithField("env", cfg.AppEnv).Info("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("server stopped")
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("HTTP server shutdown timed out")
		}

		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		logger.Info("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
