package main

import (
	"context"
	"flag"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"tradlyst/config"
	"tradlyst/internal/adapters/kafkanotify"
	"tradlyst/internal/adapters/logger"
	"tradlyst/internal/adapters/postgres"
	"tradlyst/internal/adapters/session"
	"tradlyst/internal/adapters/sqlite"
	"tradlyst/internal/app"
	"tradlyst/internal/cli"
	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(cfg.LogLevel, cfg.LogFormat)
	defer appLogger.Sync()
	appLogger.Debug(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Cancel running imports on Ctrl-C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Register Commands; the store is opened lazily by the commands that need it
	env := &cli.Env{
		Currency: cfg.Currency,
		Setup: func(ctx context.Context) (*cli.Services, error) {
			return openServices(ctx, cfg, appLogger)
		},
	}
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(env) {
		commander.Register(c, "")
	}

	flag.Parse()
	status := commander.Execute(ctx)
	appLogger.Sync()
	os.Exit(int(status))
}

// openServices wires the trade store, session, notifier and services.
func openServices(ctx context.Context, cfg *config.Config, appLogger *logger.ZapLogger) (*cli.Services, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Trade Store
	var store ports.TradeStore
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, postgres.Config{
			DatabaseURL: cfg.DatabaseURL,
			Pool: postgres.PoolConfig{
				MaxConns:          cfg.DBMaxConns,
				MinConns:          cfg.DBMinConns,
				MaxConnLifetime:   postgres.DefaultPoolConfig().MaxConnLifetime,
				MaxConnIdleTime:   postgres.DefaultPoolConfig().MaxConnIdleTime,
				HealthCheckPeriod: postgres.DefaultPoolConfig().HealthCheckPeriod,
			},
			Logger: appLogger,
		})
		if err != nil {
			return nil, err
		}
		store = repo
		closers = append(closers, repo.Close)
	default:
		repo, err := sqlite.NewRepository(sqlite.Config{
			DBPath: cfg.DBPath,
			Logger: appLogger,
		})
		if err != nil {
			return nil, err
		}
		store = repo
		closers = append(closers, func() {
			if err := repo.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing database repository")
			}
		})
	}
	appLogger.Info(ctx, "Trade store initialized", map[string]interface{}{"driver": cfg.StoreDriver})

	// Import Notifications (optional)
	var notifier ports.ImportNotifier
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafkanotify.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, appLogger)
		if err != nil {
			closeAll()
			return nil, err
		}
		notifier = publisher
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing Kafka publisher")
			}
		})
		appLogger.Info(ctx, "Kafka import events enabled", map[string]interface{}{"topic": cfg.KafkaTopic})
	}

	// Application Services
	sess := session.NewStatic(cfg.UserID)
	book, err := app.NewTradeBook(store, appLogger, cfg.TradeCacheTTL)
	if err != nil {
		closeAll()
		return nil, err
	}
	importer, err := app.NewImportService(cfg, appLogger, store, sess, book, notifier)
	if err != nil {
		closeAll()
		return nil, err
	}

	userID := domain.AnonymousUserID
	if id, ok := sess.CurrentUserID(ctx); ok {
		userID = id
	}

	return &cli.Services{
		Importer: importer,
		Trades:   book,
		UserID:   userID,
		Close:    closeAll,
	}, nil
}
