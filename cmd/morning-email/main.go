package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rares1928/morning-email/internal/admin"
	"github.com/rares1928/morning-email/internal/cache"
	"github.com/rares1928/morning-email/internal/config"
	"github.com/rares1928/morning-email/internal/content"
	"github.com/rares1928/morning-email/internal/digest"
	"github.com/rares1928/morning-email/internal/dispatch"
	"github.com/rares1928/morning-email/internal/job"
	"github.com/rares1928/morning-email/internal/mail"
)

// Exit codes: 0 every digest delivered, 1 some deliveries failed or the run
// itself broke, 2 the configuration was rejected before any fetch or send.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

// errPartialFailure marks a run that completed but could not deliver to
// every recipient.
var errPartialFailure = errors.New("some digests were not delivered")

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("refusing to run with broken configuration", "err", err)
		os.Exit(exitConfig)
	}

	if err := run(log, cfg); err != nil {
		log.Error("run finished with error", "err", err)
		os.Exit(exitFailed)
	}

	os.Exit(exitOK)
}

func run(log *slog.Logger, cfg *config.Config) error {
	ctx := context.Background()

	loc, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %s: %w", cfg.Location.Timezone, err)
	}

	// Optional forecast cache. An unreachable Redis only costs the cache,
	// never the run.
	var summaryCache content.SummaryCache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unreachable, running without forecast cache", "err", err)
		} else {
			defer func() { _ = redisClient.Close() }()
			summaryCache = cache.NewForecastCache(redisClient)
			log.Info("forecast cache enabled")
		}
	}

	sender := newSender(cfg, log)

	renderer, err := digest.NewRenderer()
	if err != nil {
		return fmt.Errorf("building renderer: %w", err)
	}

	fetcher := content.NewFetcher(cfg.QuoteTags, cfg.QuoteMaxLength, summaryCache)
	dispatcher := dispatch.New(renderer, sender, log)
	jb := job.New(fetcher, dispatcher, cfg.Location, cfg.Recipients, loc, log)

	if cfg.Schedule == "" {
		return runOnce(ctx, jb)
	}

	return runScheduled(log, cfg, jb, redisClient, loc)
}

// newSender picks the mail transport: a logging stub for dry runs, Resend
// when selected, otherwise authenticated SMTP.
func newSender(cfg *config.Config, log *slog.Logger) mail.Sender {
	switch {
	case cfg.DryRun:
		log.Info("dry run, digests will be logged instead of sent")
		return mail.NewLogSender(log)
	case cfg.MailProvider == config.ProviderResend:
		return mail.NewResendSender(cfg.ResendAPIKey, cfg.SenderEmail)
	default:
		return mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword)
	}
}

// runOnce performs a single digest run, the default mode when an external
// timer starts the process.
func runOnce(ctx context.Context, jb *job.Job) error {
	summary, err := jb.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("digest run: %w", err)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d recipients failed", errPartialFailure, summary.Failed, summary.Sent+summary.Failed)
	}
	return nil
}

// runScheduled keeps the process resident: digests go out on the cron
// schedule, and the admin listener exposes health, status, and a manual
// trigger until SIGINT or SIGTERM arrives.
func runScheduled(log *slog.Logger, cfg *config.Config, jb *job.Job, redisClient *redis.Client, loc *time.Location) error {
	scheduler := job.NewScheduler(cfg.Schedule, jb, loc, log)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer scheduler.Stop()

	var pinger admin.RedisPinger
	if redisClient != nil {
		pinger = &redisPingerAdapter{client: redisClient}
	}

	handlers := admin.NewHandlers(jb, pinger, log)
	router := admin.NewRouter(handlers, cfg.AdminToken)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("admin server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("admin server panicked: %v", r)
			}
		}()
		log.Info("admin server starting", "port", cfg.Port, "cron", cfg.Schedule)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("admin server shut down cleanly")
	return nil
}

// redisPingerAdapter adapts redis.Client to the admin.RedisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
