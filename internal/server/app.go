// Package server wires configuration, storage, services and the HTTP
// transport together and runs them until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/postboard/internal/cryptox"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/assets"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/config"
	"github.com/dmitrijs2005/postboard/internal/server/events"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postboard/internal/server/rest"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/dmitrijs2005/postboard/internal/server/storage"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       *storage.S3Store
	broker      *events.Broker
	server      *rest.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := storage.NewS3Store(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	broker := events.NewBroker(64)

	issuer := auth.NewIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	accountService := services.NewAccountService(db, rm, cryptox.NewPasswordHasher(c.BcryptCost), issuer)
	postService := services.NewPostService(db, rm, assets.NewValidator(int64(c.MaxUploadSize)), store, broker, logger)

	srv := rest.NewServer(rest.Options{
		Accounts:      accountService,
		Posts:         postService,
		Verifier:      issuer,
		Logger:        logger,
		CORSOrigin:    c.CORSOrigin,
		MaxUploadSize: c.MaxUploadSize,
	})

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		store:       store,
		broker:      broker,
		server:      srv,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// auditLog writes one line per post event until events is closed.
func auditLog(ctx context.Context, logger logging.Logger, ch <-chan events.Event) {
	for e := range ch {
		logger.Info(ctx, "post event",
			"kind", string(e.Kind),
			"post_id", e.PostID,
			"account_id", e.AccountID,
			"at", e.At,
		)
	}
}

func (app *App) prepare(ctx context.Context) error {
	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := app.store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "closing db", "error", err)
		}
	}()

	if err := app.prepare(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup

	ch, unsubscribe := app.broker.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		auditLog(ctx, app.logger.With("module", "audit"), ch)
	}()

	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer unsubscribe()
		if err := app.server.Run(ctx, app.config.EndpointAddrHTTP); err != nil {
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()
	app.broker.Close()

	return runErr
}
