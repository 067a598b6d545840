// Package server wires configuration, storage and transports together and
// runs the HTTP and gRPC servers until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/romcom/romcom-auth/internal/cryptox"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/server/auth"
	"github.com/romcom/romcom-auth/internal/server/config"
	"github.com/romcom/romcom-auth/internal/server/httpapi"
	"github.com/romcom/romcom-auth/internal/server/repositories/repomanager"
	"github.com/romcom/romcom-auth/internal/server/services"

	gs "github.com/romcom/romcom-auth/internal/server/grpc"
)

const startupTimeout = 30 * time.Second

// runner is anything the App keeps alive until shutdown.
type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   redis.UniversalClient
	auth    *services.AuthService
	servers map[string]runner
}

// NewApp opens the database, applies migrations, selects the refresh token
// store and builds the services. c must already be validated.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	app := &App{config: c, logger: logger.With("module", "app"), db: db}
	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}

	m, err := app.repositoryManager(ctx)
	if err != nil {
		return err
	}

	if err := m.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	hasher, err := cryptox.NewHasher(app.config.HasherParams())
	if err != nil {
		return fmt.Errorf("hasher: %w", err)
	}
	signer, err := auth.NewSigner(app.config.SecretKey)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}

	app.auth = services.NewAuthService(app.db, m, hasher, signer, app.config, app.logger)
	app.servers = map[string]runner{
		"http": httpapi.NewServer(app.config.EndpointAddrHTTP, app.auth, app.logger),
		"grpc": gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth),
	}
	return nil
}

func (app *App) repositoryManager(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.RefreshTokenStore != config.StoreRedis {
		return repomanager.NewPostgresRepositoryManager(), nil
	}

	opts, err := redis.ParseURL(app.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping error: %w", err)
	}
	app.redis = client

	app.logger.Info(ctx, "refresh tokens stored in redis", "addr", opts.Addr)
	return repomanager.NewRedisRepositoryManager(client), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives, ctx is cancelled or one of the servers
// fails; then it stops the others and releases storage.
func (app *App) Run(ctx context.Context) error {
	defer app.close()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for name, srv := range app.servers {
		name, srv := name, srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				app.logger.Error(ctx, "server stopped with error", "server", name, logging.Err(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
			cancelFunc()
		}()
	}

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
	return errors.Join(errs...)
}

func (app *App) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(context.Background(), "redis close", logging.Err(err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close", logging.Err(err))
		}
	}
}
