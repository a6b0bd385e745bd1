// hiresphere-alert-service
//
// Job-alert matching and notification pipeline:
//   - three cron cadences (immediate / daily / weekly) sweep active alerts
//   - per alert: match new open jobs since the last send, compose a digest
//     (optionally AI-personalized), email it, advance the watermark
//   - thin HTTP API for alert management, test dispatch and ad-hoc matching
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hiresphere/alert-service/internal/ai"
	"hiresphere/alert-service/internal/api"
	"hiresphere/alert-service/internal/config"
	"hiresphere/alert-service/internal/db"
	"hiresphere/alert-service/internal/digest"
	"hiresphere/alert-service/internal/mail"
	"hiresphere/alert-service/internal/match"
	"hiresphere/alert-service/internal/metrics"
	"hiresphere/alert-service/internal/model"
	"hiresphere/alert-service/internal/notify"
	"hiresphere/alert-service/internal/scheduler"
	"hiresphere/alert-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("postgres connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("redis connect failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("redis connected")

	// ── Stores ───────────────────────────────────────────────────────────────
	alertStore := store.NewAlertStore(pool)
	jobStore := store.NewJobStore(pool)
	userStore := store.NewUserStore(pool)

	// ── Pipeline ─────────────────────────────────────────────────────────────
	var gen digest.TextGenerator = digest.NoopGenerator{}
	if cfg.GeminiAPIKey != "" {
		g, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Warn("gemini init failed, digests will not be personalized", "err", err)
		} else {
			gen = g
		}
	} else {
		slog.Info("GEMINI_API_KEY not set, digests will not be personalized")
	}

	mailer, err := mail.NewSESMailer(ctx, cfg.AWSRegion, cfg.SenderEmail)
	if err != nil {
		slog.Error("ses init failed", "err", err)
		os.Exit(1)
	}

	matcher := match.New(jobStore, cfg.MatchScanLimit)
	composer := digest.NewComposer(gen, cfg.SiteBaseURL, cfg.AITimeout)
	dispatcher := notify.NewDispatcher(mailer, cfg.MailTimeout)

	sched := scheduler.New(scheduler.Deps{
		Alerts:     alertStore,
		Users:      userStore,
		Matcher:    matcher,
		Composer:   composer,
		Dispatcher: dispatcher,
		Lock:       scheduler.NewRedisLocker(rdb),
		Events:     scheduler.NewRedisEvents(rdb),
	}, scheduler.Specs{
		model.FrequencyImmediate: cfg.ImmediateSpec,
		model.FrequencyDaily:     cfg.DailySpec,
		model.FrequencyWeekly:    cfg.WeeklySpec,
	}, nil)

	if err := sched.Start(ctx); err != nil {
		slog.Error("scheduler start failed", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	if cfg.RunOnStart {
		go sched.RunCycle(ctx, model.FrequencyImmediate)
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	router := api.NewRouter(api.NewHandler(alertStore, matcher, sched))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("alert-service listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	slog.Info("stopped")
}
