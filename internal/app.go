// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	router "finflow-transfer/internal/api"
	"finflow-transfer/internal/api/handler"
	"finflow-transfer/internal/config"
	"finflow-transfer/internal/fee"
	"finflow-transfer/internal/lock"
	"finflow-transfer/internal/repository"
	"finflow-transfer/internal/repository/memory"
	"finflow-transfer/internal/repository/postgres"
	"finflow-transfer/internal/service"
	"finflow-transfer/internal/util"
	"finflow-transfer/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *zap.SugaredLogger
	DB     *sqlx.DB
	Redis  redis.UniversalClient
	Kafka  *kafka.Writer

	// Stores
	WalletStore    repository.WalletStore
	TransactionLog repository.TransactionLog
	Locker         lock.Locker

	// Services
	TransferService service.TransferService
	QueryService    service.QueryService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context, envFiles ...string) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	logger, err := util.InitLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Logger.Infow("Application configuration loaded successfully.", "store_backend", cfg.StoreBackend, "lock_backend", cfg.Lock.Backend)

	// 3. Initialize Stores
	if err := app.initStores(ctx); err != nil {
		return err
	}

	// 4. Initialize Locker
	if err := app.initLocker(ctx); err != nil {
		return err
	}

	// 5. Initialize Kafka publisher (optional)
	var publisher service.KafkaWriter
	if len(cfg.Kafka.Brokers) > 0 {
		app.Kafka = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
			Logger: kafka.LoggerFunc(func(msg string, args ...any) {
				app.Logger.Debugf(msg, args...)
			}),
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				app.Logger.Errorf(msg, args...)
			}),
		}
		publisher = app.Kafka
		app.Logger.Infow("Kafka publisher initialized.", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	// 6. Initialize Services
	policy, err := fee.NewPercentagePolicy(cfg.Engine.FeeRate)
	if err != nil {
		return fmt.Errorf("failed to create fee policy: %w", err)
	}
	app.TransferService = service.NewTransferService(
		app.WalletStore,
		app.TransactionLog,
		policy,
		app.Locker,
		publisher,
		service.EngineConfig{
			StoreTimeout:   cfg.Engine.StoreTimeout,
			LockTimeout:    cfg.Engine.LockTimeout,
			AppendAttempts: cfg.Engine.AppendMaxAttempts,
			AppendBackoff:  cfg.Engine.AppendBackoff,
		},
	)
	app.QueryService = service.NewQueryService(app.WalletStore, app.TransactionLog, app.Locker, cfg.Engine.LockTimeout)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.TransferService, app.QueryService, app.Logger)
	app.HTTPHandler = router.NewRouter(walletHandler, app.Logger, cfg.CORSOrigins)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) initStores(ctx context.Context) error {
	if app.Config.StoreBackend == config.StoreBackendMemory {
		wallets := memory.NewWalletRepository()
		app.WalletStore = wallets
		app.TransactionLog = memory.NewTransactionRepository(wallets)
		app.Logger.Warn("Using in-memory stores; balances are lost on restart.")
		return nil
	}

	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Infow("Database connection established.", "driver", app.Config.DB.Driver)

	if app.Config.DB.AutoMigrate {
		if err := db.EnsureSchema(ctx, app.DB); err != nil {
			return err
		}
		app.Logger.Info("Database schema ensured.")
	}

	app.WalletStore = postgres.NewWalletRepository(app.DB, app.Config.Engine.ConflictMaxAttempts)
	app.TransactionLog = postgres.NewTransactionRepository(app.DB, db.BeginTx, db.CommitTx, db.RollbackTx, app.Config.Engine.ConflictMaxAttempts)
	app.Logger.Info("Repositories initialized.")
	return nil
}

func (app *Application) initLocker(ctx context.Context) error {
	if app.Config.Lock.Backend != config.LockBackendRedis {
		app.Locker = lock.NewLocalLocker()
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     app.Config.Redis.Addr,
		Password: app.Config.Redis.Password,
		DB:       app.Config.Redis.DB,
		PoolSize: app.Config.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.Redis = rdb
	app.Locker = lock.NewRedisLocker(rdb, app.Config.Lock.TTL)
	app.Logger.Infow("Redis wallet locker initialized.", "addr", app.Config.Redis.Addr)
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")

	var errs []error
	if app.Kafka != nil {
		if err := app.Kafka.Close(); err != nil {
			app.Logger.Errorw("Failed to close Kafka writer", "error", err)
			errs = append(errs, fmt.Errorf("failed to close kafka writer: %w", err))
		}
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Errorw("Failed to close Redis client", "error", err)
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Errorw("Failed to close database connection", "error", err)
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		} else {
			app.Logger.Info("Database connection closed.")
		}
	}
	_ = app.Logger.Sync()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
