package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/auth"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/config"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/mercadolibre"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/router"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller"
	sellerrepo "github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/repo"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/session"
	sessionrepo "github.com/ovaphlow/pitchfork/service-globalseller/internal/session/repo"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-globalseller/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-globalseller/pkg/database"
	"github.com/ovaphlow/pitchfork/service-globalseller/pkg/utilities"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service-globalseller: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// best-effort: a missing .env just means the real environment is used
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()
	sugar := lg.Sugar()
	sugar.Infow("starting service-globalseller", "addr", cfg.HTTP.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := database.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer func() { err = multierr.Append(err, sqlDB.Close()) }()

	if err := database.Migrate(ctx, sqlDB); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	db := database.Wrap(sqlDB)

	ids := utilities.NewIDGenerator(cfg.SnowflakeNode)

	users := user.NewUserService(userrepo.NewUserRepo(db), user.PBKDF2Hasher{}, ids, sugar)
	sessions := session.NewStore(sessionrepo.NewSessionRepo(db), sugar)
	authSvc := auth.NewService(users, sessions, sugar)

	ml := mercadolibre.NewClient(
		mercadolibre.WithBaseURL(cfg.MercadoLibre.BaseURL),
		mercadolibre.WithTimeout(cfg.MercadoLibre.Timeout),
		mercadolibre.WithMaxRetries(cfg.MercadoLibre.MaxRetries),
	)
	sellers := seller.NewService(sellerrepo.NewSellerRepo(db), ml, ids, sugar)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, "globalseller"),
	)

	handler := router.RegisterRoutes(sugar, router.Deps{
		Auth:          authSvc,
		SecureCookies: cfg.HTTP.CookieSecure,
		Sellers:       sellers,
		DB:            sqlDB,
		Gatherer:      reg,
		Metrics:       router.NewMetrics(reg),
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sessions.RunSweeper(ctx, cfg.Session.SweepInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		sugar.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			sugar.Errorw("http server failed", "err", err)
			stop()
			<-sweepDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		err = multierr.Append(err, fmt.Errorf("http shutdown: %w", shutdownErr))
	}
	stop()
	<-sweepDone

	sugar.Info("goodbye")
	return err
}
