package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadp "loan-tracker/internal/adapter/http"
	"loan-tracker/internal/adapter/repository/mysql"
	"loan-tracker/internal/auth"
	"loan-tracker/internal/config"
	"loan-tracker/internal/infrastructure/cache"
	"loan-tracker/internal/infrastructure/db"
	"loan-tracker/internal/infrastructure/push"
	"loan-tracker/internal/infrastructure/storage"
	"loan-tracker/internal/notify"
	"loan-tracker/internal/realtime"
	authuc "loan-tracker/internal/usecase/auth"
	loanuc "loan-tracker/internal/usecase/loan"
	paymentuc "loan-tracker/internal/usecase/payment"
	"loan-tracker/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := mysql.AutoMigrate(gdb); err != nil {
		return err
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	files, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	var pusher push.Pusher = push.LogPusher{Logger: log}
	if cfg.AMQPURL != "" {
		ap, err := push.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer ap.Close()
		pusher = ap
	}

	users := mysql.NewUserRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	payments := mysql.NewPaymentRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	hub := realtime.NewHub(realtime.DefaultBuffer)
	defer hub.Close()
	broker := realtime.NewRedisBroker(rdb, cfg.RealtimeChannel, hub, log)
	notifier := notify.NewNotifier(users, pusher, cfg.PublicBaseURL, 0, log)
	events := realtime.Fanout{broker, notifier}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL(), auth.NewRedisRevoker(rdb))

	paymentsUC := paymentuc.NewUsecase(loans, payments, tx, files, events, log)

	e := httpadp.NewEcho()
	httpadp.Register(e, httpadp.Routes{
		Auth:           httpadp.NewAuthHandler(authuc.NewUsecase(users, tokens)),
		Loans:          httpadp.NewLoanHandler(loanuc.NewUsecase(loans, payments, users, tx, events)),
		Payments:       httpadp.NewPaymentHandler(paymentsUC, cfg.UploadMaxBytes),
		Notifications:  httpadp.NewNotificationsHandler(hub, paymentsUC, log),
		Tokens:         tokens,
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		UploadDir:      files.Dir(),
		MaxUploadBytes: cfg.UploadMaxBytes,
		Checks: []httpadp.Check{
			{Name: "db", Ping: sqlDB.PingContext},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return broker.Run(gctx) })
	g.Go(func() error { return notifier.Run(gctx) })
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		log.Info("listening", "addr", addr, "env", cfg.AppEnv)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
