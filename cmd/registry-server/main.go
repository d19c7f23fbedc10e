package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medrec/registry/internal/config"
	"github.com/medrec/registry/internal/domain/catalog"
	"github.com/medrec/registry/internal/domain/emergency"
	"github.com/medrec/registry/internal/domain/patient"
	"github.com/medrec/registry/internal/domain/platformrule"
	"github.com/medrec/registry/internal/domain/sickleave"
	"github.com/medrec/registry/internal/domain/staffing"
	"github.com/medrec/registry/internal/domain/stationary"
	"github.com/medrec/registry/internal/domain/user"
	"github.com/medrec/registry/internal/platform/apperr"
	"github.com/medrec/registry/internal/platform/auth"
	"github.com/medrec/registry/internal/platform/authsvc"
	"github.com/medrec/registry/internal/platform/db"
	"github.com/medrec/registry/internal/platform/events"
	"github.com/medrec/registry/internal/platform/middleware"
	"github.com/medrec/registry/internal/platform/rpn"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "registry-server",
		Short: "Medical records registry API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registry API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-bg",
		Short: "Import emergency assets from an ambulance bureau export file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			assetType, _ := cmd.Flags().GetString("type")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			patientSvc := patient.NewService(patient.NewRepoPG(pool))
			catalogSvc := catalog.NewService(
				catalog.NewDiagnosisRepoPG(pool),
				catalog.NewDocumentRepoPG(pool),
				catalog.NewOrganizationRepoPG(pool),
			)

			var imported, skippedExisting, skippedNoPatient int
			switch assetType {
			case "emergency":
				svc := emergency.NewService(emergency.NewRepoPG(pool), patientSvc, catalogSvc)
				result, err := svc.ImportFromFile(ctx, f)
				if err != nil {
					return err
				}
				imported, skippedExisting, skippedNoPatient = result.Imported, result.SkippedExisting, result.SkippedNoPatient
			case "stationary":
				svc := stationary.NewService(stationary.NewRepoPG(pool), patientSvc, catalogSvc)
				result, err := svc.ImportFromFile(ctx, f)
				if err != nil {
					return err
				}
				imported, skippedExisting, skippedNoPatient = result.Imported, result.SkippedExisting, result.SkippedNoPatient
			default:
				return fmt.Errorf("unknown asset type %q, expected emergency or stationary", assetType)
			}

			fmt.Printf("Imported: %d, skipped existing: %d, skipped without patient: %d\n",
				imported, skippedExisting, skippedNoPatient)
			return nil
		},
	}
	cmd.Flags().String("file", "", "Path to the BG export JSON file")
	cmd.Flags().String("type", "emergency", "Asset type in the file: emergency or stationary")
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.EchoHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	httpTimeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second
	if cfg.IsDev() {
		e.Use(auth.DevMiddleware())
	} else {
		checker := authsvc.NewClient(cfg.AuthServiceURL, httpTimeout, logger)
		e.Use(auth.Middleware(cfg.AuthSecret, checker))
	}

	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	if cfg.RPNBaseURL != "" {
		register := rpn.NewClient(cfg.RPNBaseURL, cfg.RPNAPIKey, httpTimeout, logger)
		patientSvc = patient.NewServiceWithRegister(patient.NewRepoPG(pool), register)
	}
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	catalogSvc := catalog.NewService(
		catalog.NewDiagnosisRepoPG(pool),
		catalog.NewDocumentRepoPG(pool),
		catalog.NewOrganizationRepoPG(pool),
	)
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)

	emergencySvc := emergency.NewService(emergency.NewRepoPG(pool), patientSvc, catalogSvc)
	emergency.NewHandler(emergencySvc).RegisterRoutes(apiV1)

	stationarySvc := stationary.NewService(stationary.NewRepoPG(pool), patientSvc, catalogSvc)
	stationary.NewHandler(stationarySvc).RegisterRoutes(apiV1)

	sickLeaveSvc := sickleave.NewService(sickleave.NewRepoPG(pool), patientSvc, catalogSvc)
	sickleave.NewHandler(sickLeaveSvc).RegisterRoutes(apiV1)

	staffingSvc := staffing.NewService(staffing.NewRepoPG(pool), pool)
	staffing.NewHandler(staffingSvc).RegisterRoutes(apiV1)

	platformRuleSvc := platformrule.NewService(platformrule.NewRepoPG(pool))
	platformrule.NewHandler(platformRuleSvc).RegisterRoutes(apiV1)

	userSvc := user.NewService(user.NewRepoPG(pool))
	user.NewHandler(userSvc).RegisterRoutes(apiV1)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid redis url")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		hostname, _ := os.Hostname()
		consumer := events.NewConsumer(rdb, cfg.UserEventsStream, cfg.UserEventsGroup,
			hostname, user.NewSyncHandler(userSvc), logger)
		go func() {
			if err := consumer.Run(consumerCtx); err != nil && consumerCtx.Err() == nil {
				logger.Error().Err(err).Msg("event consumer exited")
			}
		}()
	} else {
		logger.Warn().Msg("REDIS_URL not set, user event sync disabled")
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	stopConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}
