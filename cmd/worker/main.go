package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tuition/internal/config"
	"tuition/internal/metrics"
	"tuition/internal/notify"
	"tuition/internal/queue"
	"tuition/internal/reminder"
	"tuition/internal/store"
	"tuition/internal/student"
)

// Worker scans schedules for reminders and delivers queued notifications.
func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.App, logger *slog.Logger) error {
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	var (
		q     queue.Queue
		sent  reminder.SentSet
		redis *store.Redis
	)
	if cfg.QueueBackend == "redis" {
		redis = store.NewRedis(cfg.RedisAddr)
		defer redis.Close()
		if !redis.Healthy(ctx) {
			logger.Warn("redis not reachable, delivery will retry", "addr", cfg.RedisAddr)
		}
		q = queue.NewRedisQueue(redis.Client, "")
	} else {
		q = queue.NewInMemory(64)
	}
	if cfg.ReminderDedup {
		if redis != nil {
			sent = reminder.NewRedisSentSet(redis.Client)
		} else {
			sent = reminder.NewMemorySentSet()
		}
	}

	sink := notify.Multi{notify.LogNotifier{Logger: logger}}
	if cfg.NotifyWebhookURL != "" {
		sink = append(sink, notify.NewWebhook(cfg.NotifyWebhookURL))
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	opts := []reminder.Option{reminder.WithLogger(logger), reminder.WithMetrics(m)}
	if sent != nil {
		opts = append(opts, reminder.WithSentSet(sent))
	}
	students := student.NewService(store.NewRepository(db))
	scanner := reminder.NewScanner(students, notify.Queued{Queue: q}, opts...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		scanner.Run(ctx, cfg.ReminderInterval)
	}()
	go func() {
		defer wg.Done()
		if err := notify.Deliver(ctx, q, sink, logger); err != nil {
			logger.Error("notification delivery stopped", "err", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	logger.Info("worker started", "queue", cfg.QueueBackend, "dedup", sent != nil)
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	wg.Wait()
	logger.Info("worker stopped")
	return nil
}
