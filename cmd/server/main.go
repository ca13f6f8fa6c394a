// Package main initializes and starts the GymKeeper reference backend,
// setting up configuration, logging, the database, repositories, services,
// handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/config"
	"github.com/atinyakov/GymKeeper/internal/db"
	"github.com/atinyakov/GymKeeper/internal/logger"
	"github.com/atinyakov/GymKeeper/internal/middleware"
	"github.com/atinyakov/GymKeeper/internal/repository"
	"github.com/atinyakov/GymKeeper/internal/server/handler/http"
	"github.com/atinyakov/GymKeeper/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	db.StartRefreshTokenCleaner(ctx, postgresDB, time.Hour, zapLogger)

	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	exerciseRepo := repository.NewPostgresExerciseRepository(postgresDB)
	historyRepo := repository.NewPostgresHistoryRepository(postgresDB)

	tokens := service.NewTokenService(options.JWTSecret, options.AccessTokenTTL.Duration, options.RefreshTokenTTL.Duration)
	authService := service.NewAuthService(authRepo, tokens)
	exerciseService := service.NewExerciseService(exerciseRepo)
	historyService := service.NewHistoryService(historyRepo, exerciseService, time.Local)

	if err := exerciseService.Seed(ctx); err != nil {
		zapLogger.Fatal("cannot seed exercise catalog", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := http.NewRouter(http.Handlers{
		Auth:      &http.AuthHandler{AuthService: authService, Log: zapLogger},
		History:   &http.HistoryHandler{HistoryService: historyService, Log: zapLogger},
		Exercises: &http.ExerciseHandler{ExerciseService: exerciseService, Log: zapLogger},
	}, authService, reg, middleware.NewMetrics(reg), zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if options.TLSCert != "" && options.TLSKey != "" {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
