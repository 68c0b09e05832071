package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hackgods/saree-booking/internal/app"
	"github.com/hackgods/saree-booking/internal/appointment"
	"github.com/hackgods/saree-booking/internal/config"
	"github.com/hackgods/saree-booking/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", slog.Any("err", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "summary-worker")
	logger.Info("summary-worker starting up",
		slog.String("env", cfg.Env),
		slog.String("schedule", cfg.SummarySchedule),
	)

	schedule, err := cron.ParseStandard(cfg.SummarySchedule)
	if err != nil {
		logger.Error("invalid SUMMARY_SCHEDULE", slog.Any("err", err))
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(rootCtx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer deps.Close(logger)

	c := cron.New()
	c.Schedule(schedule, cron.FuncJob(func() { runOnce(rootCtx, deps.Bookings, logger) }))

	// Run once at startup
	runOnce(rootCtx, deps.Bookings, logger)

	c.Start()
	<-rootCtx.Done()
	logger.Info("shutdown signal received, stopping summary worker")
	<-c.Stop().Done()
}

func runOnce(ctx context.Context, bookings *appointment.BookingService, logger *slog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	sum, err := bookings.Summary(runCtx)
	if err != nil {
		logger.Error("summary run error", slog.Any("err", err))
		return
	}

	attrs := []any{
		slog.Int("total", sum.Total),
		slog.Duration("took", time.Since(start)),
	}
	for _, st := range appointment.Statuses {
		attrs = append(attrs, slog.Int(string(st), sum.ByStatus[st]))
	}
	logger.Info("appointment summary", attrs...)
}
