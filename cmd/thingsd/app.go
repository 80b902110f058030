package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	things "github.com/goliatone/go-things"
	"github.com/goliatone/go-things/api"
	"github.com/goliatone/go-things/config"
	"github.com/goliatone/go-things/metrics"
	"github.com/uptrace/bun"
)

type App struct {
	config  *config.Config
	bunDB   *bun.DB
	repo    things.RepositoryManager
	things  things.ThingRepository
	auth    *things.Authenticator
	metrics *metrics.Metrics
	srv     *api.Server
	logger  *glog.BaseLogger
}

func NewApp(cfg *config.Config) *App {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	if cfg.GetDebug() {
		lgr = glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("app"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
		)
	}

	return &App{
		config: cfg,
		logger: lgr,
	}
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) Close() error {
	if a.bunDB == nil {
		return nil
	}
	return a.bunDB.Close()
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.Config()

	db, err := things.OpenSQLite(ctx, cfg.GetDSN())
	if err != nil {
		return err
	}

	if cfg.IsMemoryDSN() {
		app.GetLogger("persistence").Warn("using in-memory database, records are lost on exit", "dsn", cfg.GetDSN())
	}

	repo := things.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		_ = db.Close()
		return err
	}

	app.bunDB = db
	app.repo = repo
	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	cfg := app.Config()

	provider, err := things.NewIdentityProvider(
		cfg.Principal(),
		things.WithIdentityLogger(app.GetLogger("auth:prv")),
	)
	if err != nil {
		return err
	}

	app.auth = things.NewAuthenticator(provider, cfg).
		WithLogger(app.GetLogger("auth:authn"))

	return nil
}

func WithMetrics(ctx context.Context, app *App) error {
	app.metrics = metrics.New()
	return app.metrics.RegisterRuntime()
}

func WithSecuredThings(ctx context.Context, app *App) error {
	app.things = things.NewSecuredThings(
		app.repo.Things(),
		things.DefaultThingPolicy(),
		things.WithDecisionObserver(app.metrics),
	)
	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	app.srv = api.New(
		app.auth,
		app.things,
		api.WithLogger(app.GetLogger("http")),
		api.WithMetrics(app.metrics),
	)
	return nil
}

func Bootstrap(ctx context.Context, app *App, steps ...func(context.Context, *App) error) error {
	for _, step := range steps {
		if err := step(ctx, app); err != nil {
			return err
		}
	}
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
