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

	"lab-sample-intake/internal/config"
	"lab-sample-intake/internal/database"
	"lab-sample-intake/internal/handler"
	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/logger"
	"lab-sample-intake/internal/metrics"
	"lab-sample-intake/internal/middleware"
	"lab-sample-intake/internal/repository"
	"lab-sample-intake/internal/seed"
	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var seedFile string

	root := &cobra.Command{
		Use:           "lab-intake",
		Short:         "Sample intake backend for the PCR, serology and microbiology units",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reservation sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			log.Info("Schema migrated", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	})

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load departments, catalog entries, users and signatures from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			if seedFile == "" {
				seedFile = cfg.SeedFile
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			f, err := seed.Load(seedFile)
			if err != nil {
				return err
			}
			return seed.Apply(db, f, log)
		},
	}
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed file (defaults to SEED_FILE)")
	root.AddCommand(seedCmd)

	return root
}

// bootstrap loads configuration and opens the logger and database
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Log.Level, cfg.Server.GinMode)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Error("Database unavailable", zap.Error(err))
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func runServe(parent context.Context) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	m := metrics.New()
	opts := intake.Options{LockPersistedSamplesNumber: cfg.Intake.LockPersistedSamplesNumber}

	// Repositories
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	deptRepo := repository.NewDepartmentRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	signatureRepo := repository.NewSignatureRepo(db)
	draftRepo := repository.NewDraftRepo(db)
	sampleRepo := repository.NewSampleRepo(db)
	coaRepo := repository.NewCOARepo(db)

	// Services
	authService := service.NewAuthService(userRepo, auditRepo, log)
	catalogService := service.NewCatalogService(deptRepo, catalogRepo, cfg.Cache, log)
	reservationService := service.NewReservationService(counterRepo, catalogService, cfg.Intake.ReservationTTL, m, log)
	signatureService := service.NewSignatureService(signatureRepo, auditRepo, m, log)
	draftService := service.NewDraftService(draftRepo, log)
	sampleService := service.NewSampleService(db, sampleRepo, counterRepo, auditRepo, catalogService, reservationService, opts, m, log)
	intakeService := service.NewIntakeService(catalogService, reservationService, draftService, sampleService, signatureService, opts, m, log)
	coaService := service.NewCOAService(db, coaRepo, sampleRepo, auditRepo, log)
	statisticsService := service.NewStatisticsService(sampleRepo, catalogService, log)
	workerService := service.NewWorkerService(reservationService, cfg.Intake.ReservationSweepInterval, log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		workerService.Start(ctx)
	}()

	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log, m))
	r.Use(middleware.CORS(cfg.CORS))

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Catalog:    handler.NewCatalogHandler(catalogService),
		Sample:     handler.NewSampleHandler(sampleService, reservationService),
		Signature:  handler.NewSignatureHandler(signatureService),
		Intake:     handler.NewIntakeHandler(intakeService),
		COA:        handler.NewCOAHandler(coaService),
		Statistics: handler.NewStatisticsHandler(statisticsService),
	}, m.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	<-workerDone
	log.Info("Server exited")
	return nil
}
