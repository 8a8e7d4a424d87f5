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

	"github.com/jmoiron/sqlx"

	"github.com/pnithesh/viralvision-backend/internal/auth"
	"github.com/pnithesh/viralvision-backend/internal/config"
	"github.com/pnithesh/viralvision-backend/internal/router"
	userrepo "github.com/pnithesh/viralvision-backend/internal/user/repo"
	"github.com/pnithesh/viralvision-backend/internal/video"
	videorepo "github.com/pnithesh/viralvision-backend/internal/video/repo"
	"github.com/pnithesh/viralvision-backend/pkg/database"
	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting viralvision-backend", "port", cfg.Server.Port)

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()
	sugar.Info("database connected")

	sqlxDB := sqlx.NewDb(sqlDB, "postgres")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(ctx, sqlxDB)
		cancel()
		if err != nil {
			sugar.Fatalf("schema: %v", err)
		}
		sugar.Info("database schema ensured")
	}

	orm, err := database.OpenORM(sqlDB)
	if err != nil {
		sugar.Fatalf("orm: %v", err)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(userrepo.NewUserRepo(orm), auth.BcryptHasher{Cost: cfg.Auth.BcryptCost}, tokens)
	videoSvc := video.NewService(videorepo.NewVideoRepo(orm))

	handler, err := router.RegisterRoutes(router.Deps{
		Logger:   sugar,
		Auth:     auth.NewHandler(authSvc, sugar),
		Videos:   video.NewHandler(videoSvc, sugar),
		Verifier: tokens,
		HealthCheck: func(ctx context.Context) error {
			return database.Ping(ctx, sqlxDB)
		},
		CORSOrigins: cfg.Server.CORSOrigins,
		AuthLimiter: router.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
	})
	if err != nil {
		sugar.Fatalf("router: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("server listening", "addr", srv.Addr)

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
