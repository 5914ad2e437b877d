package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"holiday_greeter_bot/internal/app"
	"holiday_greeter_bot/internal/infra/config"
	idb "holiday_greeter_bot/internal/infra/database"
	"holiday_greeter_bot/internal/infra/logger"
	"holiday_greeter_bot/internal/infra/scheduler"
	"holiday_greeter_bot/internal/infra/secret"
	"holiday_greeter_bot/internal/infra/telegram"
	"holiday_greeter_bot/internal/infra/userbot"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and the daily greeting loop",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"is_test":     cfg.IsTest,
		"daily_spec":  cfg.CronSpecDaily,
		"location":    cfg.Location.String(),
	}).Info("Configuration loaded.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	if cfg.IsTest {
		if err := idb.Reset(ctx, db); err != nil {
			return err
		}
		mainLogger.Warn("Test mode enabled. Dropping and recreating tables.")
	} else if err := idb.Migrate(ctx, db); err != nil {
		return err
	}

	// Initialize Repositories
	logRepo := idb.NewPostgresLogRepository(db)
	logger.Persist(logRepo, logrus.WarnLevel)

	var cipher idb.CredentialCipher = secret.Plain{}
	if cfg.CredentialsSecret != "" {
		cipher = secret.NewBox(cfg.CredentialsSecret)
	} else {
		mainLogger.Warn("CREDENTIALS_SECRET is not set, API hashes are stored unencrypted.")
	}
	accountRepo := idb.NewPostgresAccountRepository(db, cipher)
	holidayRepo := idb.NewPostgresHolidayRepository(db)

	// Messaging sessions
	sessions, err := userbot.NewFactory(accountRepo, cfg.SessionsDir, logger.Component("userbot"))
	if err != nil {
		return fmt.Errorf("could not prepare sessions directory: %w", err)
	}
	login, err := userbot.NewLogin(cfg.SessionsDir)
	if err != nil {
		return fmt.Errorf("could not prepare sessions directory: %w", err)
	}

	// Services
	greetingService := app.NewGreetingService(holidayRepo, sessions, logger.Component("delivery"), cfg.DeliveryConcurrency, cfg.SendTimeout)
	holidayService := app.NewHolidayService(holidayRepo, accountRepo)
	registrationService := app.NewRegistrationService(accountRepo, login, sessions, logger.Component("registration"))

	// Daily trigger loop
	schedule, err := scheduler.NewSchedule(cfg)
	if err != nil {
		return err
	}
	trigger := scheduler.NewDailyTrigger(schedule, greetingService, cfg.SchedulerCooldown, cfg.Location, logger.Component("trigger"))

	maintenance := scheduler.NewMaintenanceScheduler(logRepo, logger.Component("maintenance"), cfg.CronSpecLogCleanup, cfg.LogRetentionDays, cfg.Location)
	if err := maintenance.Start(); err != nil {
		return err
	}
	defer maintenance.Stop()

	// Initialize Telegram Bot
	botLogger := logger.Component("telegram")
	bot, err := telegram.NewBot(cfg.TelegramToken, false, botLogger)
	if err != nil {
		return fmt.Errorf("could not create Telegram bot: %w", err)
	}
	conv := telegram.NewConversation(registrationService, holidayService, telegram.NewFormStore(), scheduler.Describe(cfg), botLogger)
	telegram.Register(ctx, bot, conv, botLogger)
	if err := telegram.SetCommands(bot, botLogger); err != nil {
		botLogger.WithError(err).Warn("Failed to set bot commands")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		trigger.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		bot.Start() // Blocks until bot.Stop
	}()
	mainLogger.Info("Bot polling started.")

	<-ctx.Done()
	mainLogger.Info("Shutting down application...")
	bot.Stop()
	wg.Wait()
	mainLogger.Info("Application shut down gracefully.")
	return nil
}
