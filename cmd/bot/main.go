package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/syoopie/money-collection-bot/internal/bot"
	"github.com/syoopie/money-collection-bot/internal/config"
	"github.com/syoopie/money-collection-bot/internal/db"
	"github.com/syoopie/money-collection-bot/internal/repo"
)

func main() {
	cfg := config.MustLoad()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := db.MustConnect(ctx, cfg.DatabaseURL)
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("bot init", zap.Error(err))
	}
	botAPI.Debug = false

	h, err := bot.NewHandler(
		botAPI,
		cfg,
		logger,
		repo.NewUsers(pool),
		repo.NewGroups(pool),
		repo.NewDebtLists(pool),
	)
	if err != nil {
		logger.Fatal("handler init", zap.Error(err))
	}

	// Graceful shutdown
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	// Stale-list refresh worker
	go h.RunRefreshWorker(ctx, cfg.RefreshInterval)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	logger.Info("bot started", zap.String("username", botAPI.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown")
			return
		case upd := <-updates:
			h.HandleUpdate(ctx, upd)
		}
	}
}
