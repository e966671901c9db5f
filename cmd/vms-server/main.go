// Command vms-server serves the check-in authentication API.
//
// Run:
//
//	VMS_ACCESS_SECRET=... VMS_REFRESH_SECRET=... \
//	VMS_BOOTSTRAP_EMAIL=admin@example.com VMS_BOOTSTRAP_PASSWORD=... \
//	go run ./cmd/vms-server -config vms.yaml
//
// Without VMS_REDIS_ADDR attempts and challenges live in process memory and
// are swept on a cron schedule. Without VMS_DATABASE_URL accounts live in
// memory too.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	vms "github.com/Code4Bharat1/VMS-BACKEND"
	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
	"github.com/Code4Bharat1/VMS-BACKEND/httpapi"
	promexport "github.com/Code4Bharat1/VMS-BACKEND/metrics/export/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", getEnv("VMS_CONFIG", ""), "path to a YAML config file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Fatal("parse log level")
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

// app holds the wired process collaborators.
type app struct {
	engine  *vms.Engine
	handler http.Handler
	sweeper *cron.Cron
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func run(ctx context.Context, cfg Config, logger *logrus.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := bootstrapAdmin(ctx, a.engine, cfg.Bootstrap, logger); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newApp(ctx context.Context, cfg Config, logger *logrus.Logger) (*app, error) {
	a := &app{}

	store, err := openAccounts(ctx, cfg, a)
	if err != nil {
		a.close()
		return nil, err
	}

	b := vms.New().
		WithConfig(cfg.Engine).
		WithAccountStore(store).
		WithLogger(logger)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, err
		}
		b.WithRedis(rdb)
	}

	engine, err := b.Build()
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = engine
	a.closers = append(a.closers, engine.Close)

	for _, w := range cfg.Engine.Lint() {
		logger.WithFields(logrus.Fields{"code": w.Code, "severity": w.Severity.String()}).Warn(w.Message)
	}

	if cfg.RedisAddr == "" {
		a.sweeper = cron.New()
		if _, err := a.sweeper.AddFunc(cfg.SweepSchedule, func() {
			if n := engine.SweepExpired(); n > 0 {
				logger.WithField("removed", n).Debug("swept expired attempts and challenges")
			}
		}); err != nil {
			a.close()
			return nil, err
		}
		a.sweeper.Start()
		a.closers = append(a.closers, func() { <-a.sweeper.Stop().Done() })
	}

	metrics, err := promexport.Handler(promexport.NewCollector(engine))
	if err != nil {
		a.close()
		return nil, err
	}

	router, err := httpapi.NewRouter(engine, cfg.HTTP, httpapi.RouterOptions{
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.handler = router
	return a, nil
}

func openAccounts(ctx context.Context, cfg Config, a *app) (vms.AccountStore, error) {
	if cfg.DatabaseURL == "" {
		return accounts.NewMemoryStore(), nil
	}

	db, err := accounts.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	store := accounts.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// bootstrapAdmin creates the configured admin once. An existing account with
// the same email is left untouched.
func bootstrapAdmin(ctx context.Context, engine *vms.Engine, cfg BootstrapConfig, logger logrus.FieldLogger) error {
	if cfg.Email == "" {
		return nil
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	created, err := engine.RegisterAdmin(ctx, vms.CreateAccountRequest{
		Name:     name,
		Email:    cfg.Email,
		Password: cfg.Password,
	})
	if errors.Is(err, vms.ErrEmailTaken) {
		logger.WithField("email", accounts.NormalizeEmail(cfg.Email)).Debug("bootstrap admin exists")
		return nil
	}
	if err != nil {
		return err
	}
	logger.WithField("account_id", created.ID).Info("bootstrap admin created")
	return nil
}
