package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance/internal/config"
	"attendance/internal/handler"
	"attendance/internal/metrics"
	"attendance/internal/repository/postgres"
	"attendance/internal/service"
	"attendance/internal/sheets"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"
)

func main() {
	configPath := pflag.String("config", config.DefaultPath, "path to the bot configuration file")
	migrationsURL := pflag.String("migrations", "file://migrations", "source URL of the database migrations")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting attendance bot",
		zap.String("config", *configPath),
		zap.String("sheets_backend", cfg.Sheets.Backend),
		zap.String("timezone", cfg.Location.String()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, *migrationsURL, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Spreadsheet gateway
	backend, err := newSheetsBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize spreadsheet backend", zap.Error(err))
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}
	gateway := sheets.NewGateway(backend, cfg.AdminEmail, logger,
		sheets.WithClock(func() time.Time { return time.Now().In(cfg.Location) }),
	)

	m := metrics.New()

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("Handler failed", zap.Error(err))
		},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized", zap.String("username", bot.Me.Username))

	// Initialize repositories and services
	userRepo := postgres.NewUserRepo(db)

	approvalService := service.NewApprovalService(userRepo, handler.NewNotifier(bot), m, logger)
	registrationService := service.NewRegistrationService(userRepo, approvalService, m, logger)
	attendanceService := service.NewAttendanceService(gateway, m, logger)
	accountService := service.NewAccountService(userRepo)
	rolloverService := service.NewRolloverService(userRepo, gateway, m, logger)

	h := handler.NewHandler(bot, registrationService, approvalService, attendanceService, accountService, logger)
	h.RegisterHandlers()

	if err := bot.SetCommands(handler.Commands()); err != nil {
		logger.Warn("Failed to set bot commands", zap.Error(err))
	}

	logger.Info("Handlers registered")

	// Daily rollover
	scheduler, err := startRollover(ctx, rolloverService, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to schedule rollover", zap.Error(err))
	}

	// Metrics endpoint
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	<-scheduler.Stop().Done()
	cancel()

	logger.Info("Bot stopped gracefully")
}

// newLogger builds a production logger at the given level
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// newSheetsBackend creates the configured spreadsheet backend
func newSheetsBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (sheets.Backend, error) {
	switch cfg.Sheets.Backend {
	case config.BackendXLSX:
		logger.Info("Using local xlsx workbooks", zap.String("dir", cfg.Sheets.XLSXDir))
		return sheets.NewXLSXBackend(cfg.Sheets.XLSXDir, logger)
	default:
		logger.Info("Using Google Sheets", zap.String("credentials", cfg.Sheets.CredentialsFile))
		return sheets.NewGoogleBackend(ctx, cfg.Sheets.CredentialsFile, logger)
	}
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies pending schema migrations from sourceURL
func runMigrations(db *sql.DB, sourceURL string, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case err == migrate.ErrNoChange:
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}
	return nil
}

// startRollover prepares today's sheet and schedules the daily rollover
func startRollover(ctx context.Context, rollover *service.RolloverService, cfg *config.Config, logger *zap.Logger) (*cron.Cron, error) {
	// Run once at startup
	if err := rollover.Run(ctx); err != nil {
		logger.Error("Failed to run initial rollover", zap.Error(err))
	}

	scheduler := newScheduler(cfg.Location, logger)

	_, err := scheduler.AddFunc(cfg.RolloverSchedule, func() {
		logger.Info("Running scheduled rollover")
		if err := rollover.Run(ctx); err != nil {
			logger.Error("Failed to run scheduled rollover", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLOVER_SCHEDULE %q: %w", cfg.RolloverSchedule, err)
	}

	scheduler.Start()
	logger.Info("Rollover scheduled", zap.String("schedule", cfg.RolloverSchedule))
	return scheduler, nil
}

// newScheduler returns a cron scheduler that skips overlapping runs and
// reports through logger
func newScheduler(loc *time.Location, logger *zap.Logger) *cron.Cron {
	cl := cronLogger{logger.Named("cron").Sugar()}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
