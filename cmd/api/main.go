package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve on images without zoneinfo

	"github.com/uniwork/uniwork-backend-go/internal/config"
	appHTTP "github.com/uniwork/uniwork-backend-go/internal/handler/http"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/cron"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/database"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/exchangerate"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/jwt"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/logger"
	"github.com/uniwork/uniwork-backend-go/internal/repository/postgresql"
	attendanceService "github.com/uniwork/uniwork-backend-go/internal/service/attendance"
	statsService "github.com/uniwork/uniwork-backend-go/internal/service/stats"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgresql.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		log.Info("Database schema ensured")
	}

	// Repositories
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	breakRepo := postgresql.NewBreakRepository(db)
	recordRepo := postgresql.NewRecordRepository(db)
	profileRepo := postgresql.NewProfileRepository(db)
	transactor := postgresql.NewTransactor(db)

	// Exchange rates
	rateClient := exchangerate.NewClient(cfg.ExchangeRate.APIURL, cfg.ExchangeRate.Timeout)
	rateProvider := exchangerate.NewCachedProvider(rateClient, cfg.RateCacheTTL())

	// Services
	location := cfg.Location()
	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt service: %w", err)
	}
	attendanceSvc := attendanceService.NewAttendanceService(transactor, attendanceRepo, breakRepo, location)
	statsSvc := statsService.NewStatsService(recordRepo, profileRepo, rateProvider, location)

	// Handlers
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	statsHandler := appHTTP.NewStatsHandler(statsSvc)

	router := appHTTP.NewRouter(
		log,
		cfg.App.AllowedOrigins,
		JWTService,
		statsHandler,
		attendanceHandler,
	)

	// Background jobs
	scheduler := cron.NewScheduler(log)
	cron.NewExchangeRateJobs(
		rateProvider,
		cfg.ExchangeRate.BaseCurrency,
		cfg.ExchangeRate.RefreshInterval,
		cfg.ExchangeRate.Timeout,
	).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server running", "addr", server.Addr, "timezone", location.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
