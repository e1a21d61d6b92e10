package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crypto-portfolio-bot/config"
	"crypto-portfolio-bot/internal/api"
	"crypto-portfolio-bot/internal/auth"
	"crypto-portfolio-bot/internal/bot"
	"crypto-portfolio-bot/internal/database"
	"crypto-portfolio-bot/internal/events"
	"crypto-portfolio-bot/internal/feed"
	"crypto-portfolio-bot/internal/indicators"
	"crypto-portfolio-bot/internal/logging"
	"crypto-portfolio-bot/internal/portfolio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
		Component:  "main",
	})
	logging.SetDefault(logger)

	botLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	eventBus := events.NewEventBus()

	// Persistence is optional; without it the book starts from defaults
	// and bot state lives only in memory.
	var repo *database.Repository
	var db *database.DB
	if cfg.DatabaseConfig.Enabled {
		db, err = database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		}, logger)
		if err != nil {
			logger.Warn("database unavailable, running without persistence", "error", err)
		} else {
			defer db.Close()
			migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := db.RunMigrations(migrateCtx); err != nil {
				logger.Error("migrations failed", "error", err)
			}
			cancel()
			repo = database.NewRepository(db)
		}
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := database.NewRedisClient(rootCtx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	botState := database.NewBotStateStore(redisClient, logger)

	// The book, the indicator engine and the bot pool are wired through
	// hooks so every candle delivery runs as one atomic unit: load the
	// series, recompute the indicators, then let the bots react.
	book := portfolio.New()
	engine := indicators.New(logger)
	pool := bot.NewPool(botLogger, eventBus)

	book.SetRecompute(engine.RecomputeAll)
	book.SetSignalHook(func(a *portfolio.Asset) {
		eventBus.PublishSignalComputed(a.Symbol, a.Ind.ScalpSignal.String(),
			a.Ind.ScalpTrend, a.Ind.ScalpMomentum, a.Ind.ProfitProbability)
		pool.ProcessSignal(a)
	})

	loadHoldings(rootCtx, book, repo, cfg.PortfolioConfig.SeedDefaults, logger)

	// Persist fills and snapshot the bots after every executed trade.
	eventBus.Subscribe(events.EventTradeExecuted, func(event events.Event) {
		persistBots(rootCtx, pool, repo, botState, logger)
	})

	authMgr := auth.NewManager(
		cfg.AuthConfig.JWTSecret,
		cfg.AuthConfig.Username,
		cfg.AuthConfig.PasswordHash,
		cfg.AuthConfig.TokenDuration,
	)
	if !authMgr.Enabled() {
		logger.Warn("authentication disabled, API is open")
	}

	feedClient := feed.NewClient(cfg.FeedConfig.BaseURL)
	poller := feed.NewPoller(feedClient, book, eventBus, logger,
		cfg.FeedConfig.TickInterval, cfg.FeedConfig.CandleInterval)
	go poller.Run(rootCtx)

	server := api.NewServer(api.ServerConfig{
		Host:           cfg.ServerConfig.Host,
		Port:           cfg.ServerConfig.Port,
		ProductionMode: cfg.ServerConfig.ProductionMode,
	}, book, pool, repo, authMgr, eventBus, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	if repo != nil {
		if err := repo.SaveHoldings(shutdownCtx, book.Holdings()); err != nil {
			logger.Error("holdings save failed", "error", err)
		}
	}
}

// loadHoldings restores the persisted book, falling back to the seed
// book when persistence is empty or disabled.
func loadHoldings(ctx context.Context, book *portfolio.Portfolio, repo *database.Repository, seed bool, logger *logging.Logger) {
	if repo != nil {
		holdings, err := repo.LoadHoldings(ctx)
		if err != nil {
			logger.Warn("holdings load failed", "error", err)
		} else if len(holdings) > 0 {
			book.LoadHoldings(holdings)
			logger.Info("holdings restored", "count", len(holdings))
			return
		}
	}
	if seed {
		book.LoadHoldings(portfolio.DefaultHoldings())
		logger.Info("seeded default holdings", "count", book.Len())
	}
}

// persistBots writes recent fills to the trade log and refreshes the
// per-slot bot snapshots.
func persistBots(ctx context.Context, pool *bot.Pool, repo *database.Repository, botState *database.BotStateStore, logger *logging.Logger) {
	for _, status := range pool.Statuses(nil) {
		if repo != nil {
			trades, err := pool.Trades(status.Index)
			if err == nil {
				for _, t := range trades {
					if err := repo.SaveTrade(ctx, t); err != nil {
						logger.Warn("trade save failed", "error", err)
						break
					}
				}
			}
		}
		if err := botState.Save(ctx, database.BotSnapshot{
			Index:           status.Index,
			Symbol:          status.Symbol,
			State:           status.State,
			InitialBalance:  status.InitialBalance,
			CurrentBalance:  status.CurrentBalance,
			TradeAmountUSD:  status.TradeAmountUSD,
			CurrentPosition: status.CurrentPosition,
			AvgBuyPrice:     status.AvgBuyPrice,
			TotalTrades:     status.TotalTrades,
			WinningTrades:   status.WinningTrades,
			LosingTrades:    status.LosingTrades,
			TotalProfit:     status.TotalProfit,
			TotalFeesPaid:   status.TotalFeesPaid,
			MaxDrawdown:     status.MaxDrawdown,
		}); err != nil {
			logger.Warn("bot snapshot save failed", "error", err)
		}
	}
}
