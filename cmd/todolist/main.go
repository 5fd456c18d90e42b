package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"todo-list/internal/bot"
	"todo-list/internal/config"
	"todo-list/internal/console"
	"todo-list/internal/logger"
	"todo-list/internal/repository"
	"todo-list/internal/service"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML, TOML or JSON config file")
	forceConsole := flag.Bool("console", false, "Use the terminal front end even if Telegram is configured")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logOut := os.Stdout
	if !cfg.TelegramEnabled() || *forceConsole {
		// Keep stdout for the console front end.
		logOut = os.Stderr
	}
	lg := logger.New(cfg.Log, logOut)

	if err := run(ctx, cfg, *forceConsole, lg); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("stopped with error", "error", err)
		os.Exit(1)
	}
	lg.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, forceConsole bool, lg *slog.Logger) error {
	db, err := repository.NewDB(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer closeDB(db, lg)

	taskRepo := repository.NewTaskRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	taskSvc := service.NewTaskService(taskRepo, lg)
	categorySvc := service.NewCategoryService(categoryRepo)
	digestSvc := service.NewDigestService(taskSvc)

	if err := taskSvc.Refresh(ctx); err != nil {
		// The front ends show an empty list and the next action retries the read.
		lg.Error("initial load", "error", err)
	}

	if !cfg.TelegramEnabled() || forceConsole {
		return console.New(taskSvc, categorySvc, os.Stdin, os.Stdout).Run(ctx)
	}

	telegramBot, err := bot.New(cfg.Telegram.Token, cfg.Telegram.OwnerID, taskSvc, categorySvc, digestSvc, lg)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local)
	scheduled, err := scheduler.ScheduleDigest(cfg.Digest, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDigest(jobCtx); err != nil {
			lg.Error("send digest", "error", err)
		}
	})
	if err != nil {
		return err
	}
	if scheduled {
		scheduler.Start()
		defer scheduler.Stop()
	}

	lg.Info("todo list bot started")
	return telegramBot.Start(ctx)
}

func closeDB(db *gorm.DB, lg *slog.Logger) {
	if err := repository.Close(db); err != nil {
		lg.Error("close database", "error", err)
	}
}
