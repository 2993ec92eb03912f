package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"

	"go-workflow-engine/internal/bot"
	"go-workflow-engine/internal/config"
	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/engine"
	"go-workflow-engine/internal/logging"
	"go-workflow-engine/internal/watchdog"
)

func main() {
	fmt.Println("Starting workflow automation engine")

	_ = godotenv.Load()
	cfg := config.LoadOrDefault("config.json")

	if err := logging.Init(cfg.Logging.Level, cfg.Logging.Output); err != nil {
		panic(err)
	}
	defer logging.Sync()

	if err := initializeDatabase(cfg); err != nil {
		panic(err)
	}

	if cfg.Bot.Token == "" {
		panic("no bot token configured (set DISCORD_TOKEN or bot.token)")
	}

	if err := bot.Initialize(cfg.Bot.Token); err != nil {
		panic(err)
	}
	session := bot.GetSession()

	eng := engine.New(
		database.GetDB(),
		bot.NewAPIAdapter(session.GetDiscord()),
		engine.NewWebhookClient(cfg.Engine.WebhookTimeout(), cfg.Engine.WebhookRatePerSecond),
		cfg.Engine.ActionTimeout(),
	)

	if err := loadRulesWithRetry(eng); err != nil {
		panic(err)
	}

	// Handlers must be in place before the gateway connection opens.
	session.SetupEventHandlers(eng)
	if err := session.Connect(); err != nil {
		panic(err)
	}

	wd := watchdog.New(30 * time.Second)
	wd.RegisterComponent("cooldown-sweeper", 3*cfg.Engine.CooldownSweepInterval())
	wd.Start()

	sweeperStop := make(chan struct{})
	go eng.Cooldowns().Run(cfg.Engine.CooldownSweepInterval(), sweeperStop, func() {
		wd.Heartbeat("cooldown-sweeper")
	})

	logging.Info("All components started")
	waitForShutdown()

	close(sweeperStop)
	wd.Stop()
	session.Close()
	database.Close()

	logging.Info("Shutdown complete")
}

func initializeDatabase(cfg *config.Config) error {
	logging.Info("Initializing database at %s...", cfg.Database.Path)

	if err := database.Initialize(cfg.Database.Path); err != nil {
		return err
	}

	if !database.IsConnected() {
		logging.Warn("Database initialized but connection verification failed")
	}
	return nil
}

// loadRulesWithRetry keeps the process alive through a slow-to-appear
// database on startup; reload failures after that are the cache's problem.
func loadRulesWithRetry(eng *engine.Engine) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 2 * time.Minute

	return backoff.Retry(func() error {
		if err := eng.Cache().LoadAll(context.Background()); err != nil {
			logging.Warn("Rule cache load failed, retrying: %v", err)
			return err
		}
		return nil
	}, policy)
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logging.Info("Shutdown signal received")
}
