package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hackgods/telehealth-scheduling/internal/api"
	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/auth"
	"github.com/hackgods/telehealth-scheduling/internal/blobstore"
	"github.com/hackgods/telehealth-scheduling/internal/booking"
	"github.com/hackgods/telehealth-scheduling/internal/config"
	"github.com/hackgods/telehealth-scheduling/internal/db"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
	"github.com/hackgods/telehealth-scheduling/internal/feedback"
	"github.com/hackgods/telehealth-scheduling/internal/logging"
	"github.com/hackgods/telehealth-scheduling/internal/metrics"
	"github.com/hackgods/telehealth-scheduling/internal/notify"
	"github.com/hackgods/telehealth-scheduling/internal/prescription"
	redisclient "github.com/hackgods/telehealth-scheduling/internal/redis"
	"github.com/hackgods/telehealth-scheduling/internal/slot"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("dev", "info").Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel).With().Str("service", "api-server").Logger()
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	applied, err := db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		logger.Fatal().Err(err).Msg("migration error")
	}
	logger.Info().Int("applied", applied).Msg("migrations up to date")

	health := []api.Dependency{{Name: "postgres", Critical: true, Ping: pgPool.Ping}}

	// Connect Redis. Slot locks are advisory, so the server runs without it.
	var locker redisclient.Locker
	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using in-process slot locks")
		locker = redisclient.NewLocalLocker()
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Msg("connected to Redis")
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		health = append(health, api.Dependency{Name: "redis", Ping: api.RedisPing(rdb)})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	notifier := notify.New(cfg.SMTP, logger)
	slots := slot.NewService(slot.NewPgRepository(pgPool), cfg.StorageTimeout)
	dir := directory.NewService(directory.NewPgRepository(pgPool), cfg.StorageTimeout)
	ledger := appointment.NewLedger(appointment.NewPgRepository(pgPool), appointment.LedgerConfig{
		Timeout:  cfg.StorageTimeout,
		Location: cfg.Location(),
	}, logger, m)

	router := api.NewRouter(api.RouterConfig{
		Slots:     slots,
		Directory: dir,
		Ledger:    ledger,
		Booking: booking.NewCoordinator(booking.Deps{
			Slots:     slots,
			Directory: dir,
			Ledger:    ledger,
			Locker:    locker,
			Notifier:  notifier,
			Metrics:   m,
			Logger:    logger,
		}),
		Prescriptions: prescription.NewService(prescription.Deps{
			Repo:      prescription.NewPgRepository(pgPool),
			Blobs:     blobstore.NewPgStore(pgPool),
			Ledger:    ledger,
			Directory: dir,
			Notifier:  notifier,
			Metrics:   m,
			Logger:    logger,
			Timeout:   cfg.StorageTimeout,
		}),
		Feedback: feedback.NewService(feedback.NewPgRepository(pgPool), cfg.StorageTimeout),
		Issuer:   auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
		Health:   health,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return rootCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server error")
		stop()
	}

	logger.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(rootCtx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
