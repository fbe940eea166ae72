package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/config"
	v1 "github.com/kliniksentosa/klinik-api/internal/handler/v1"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/internal/service"
	"github.com/kliniksentosa/klinik-api/pkg/auth"
	"github.com/kliniksentosa/klinik-api/pkg/database"
	"github.com/kliniksentosa/klinik-api/pkg/logger"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
	"github.com/kliniksentosa/klinik-api/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting klinik-api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	collector := metrics.NewCollector("klinik")
	if sqlDB, err := db.DB(); err == nil {
		collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
	}

	repos := repository.New(db)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	activitySvc := service.NewActivityService(repos.Activities, collector, log)
	defer activitySvc.Shutdown()

	svcs := v1.Services{
		Auth:          service.NewAuthService(repos, jwtManager, activitySvc, log),
		Patient:       service.NewPatientService(repos, activitySvc, collector, log),
		Doctor:        service.NewDoctorService(repos, activitySvc, log),
		Appointment:   service.NewAppointmentService(repos, activitySvc, collector, log),
		MedicalRecord: service.NewMedicalRecordService(repos, activitySvc, log),
		Drug:          service.NewDrugService(repos, activitySvc, collector, log),
		Prescription:  service.NewPrescriptionService(repos, cfg.Billing, collector, log),
		Payment:       service.NewPaymentService(repos, cfg.Billing, collector, log),
		Queue:         service.NewQueueService(repos, cfg.Billing, log),
		Activity:      activitySvc,
	}

	router := v1.NewRouter(cfg, svcs, jwtManager, collector, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	log.Info("server stopped cleanly")
	return nil
}
