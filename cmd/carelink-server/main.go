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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/alerts"
	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/monitoring"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/middleware"
)

// devJWTSecret signs tokens when no JWT_SECRET is configured. Config
// validation rejects this fallback in production.
const devJWTSecret = "carelink-dev-secret"

// rosterAdapter adapts the identity service to the monitoring.Roster
// interface, avoiding a direct import between the two domains.
type rosterAdapter struct {
	svc *identity.Service
}

func (a *rosterAdapter) List(ctx context.Context) ([]monitoring.RosterEntry, error) {
	patients, err := a.svc.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]monitoring.RosterEntry, 0, len(patients))
	for _, p := range patients {
		entries = append(entries, rosterEntry(p))
	}
	return entries, nil
}

func (a *rosterAdapter) Get(ctx context.Context, id uuid.UUID) (monitoring.RosterEntry, error) {
	p, err := a.svc.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrPatientNotFound) {
			return monitoring.RosterEntry{}, monitoring.ErrPatientNotFound
		}
		return monitoring.RosterEntry{}, err
	}
	return rosterEntry(p), nil
}

func rosterEntry(p *identity.Patient) monitoring.RosterEntry {
	return monitoring.RosterEntry{
		ID:       p.ID,
		Name:     p.Name,
		Age:      p.Age,
		Gender:   p.Gender,
		DoctorID: p.AssignedDoctorID,
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "carelink-server",
		Short: "CareLink patient monitoring API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(trainModelCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring API server",
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

			pool, err := openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(context.Background())
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

			pool, err := openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(context.Background())
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

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users and patients into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

			pool, err := openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := identity.NewService(identity.NewUserRepoPG(pool), identity.NewPatientRepoPG(pool))
			if err := svc.Seed(context.Background(), logger); err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Println("Demo data seeded.")
			return nil
		},
	}
}

func trainModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train-model",
		Short: "Train the risk classifier and write the model artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			samples, _ := cmd.Flags().GetInt("samples")
			epochs, _ := cmd.Flags().GetInt("epochs")
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg := monitoring.DefaultTrainConfig()
			if samples > 0 {
				cfg.Samples = samples
			}
			if epochs > 0 {
				cfg.Epochs = epochs
			}
			if seed != 0 {
				cfg.Seed = seed
			}

			model, accuracy := monitoring.TrainModel(cfg)
			if err := monitoring.SaveModel(model, accuracy, out); err != nil {
				return err
			}
			fmt.Printf("Model trained on %d samples, accuracy %.1f%%, written to %s\n",
				cfg.Samples, accuracy*100, out)
			return nil
		},
	}
	cmd.Flags().String("out", "model.json", "Output path for the model artifact")
	cmd.Flags().Int("samples", 0, "Number of synthetic training samples")
	cmd.Flags().Int("epochs", 0, "Gradient descent epochs")
	cmd.Flags().Int64("seed", 0, "Training RNG seed")
	return cmd
}

// openPool loads config and connects to Postgres, failing when DATABASE_URL
// is unset. Used by the subcommands that only make sense against a database.
func openPool() (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.InMemoryOnly() {
		return nil, fmt.Errorf("DATABASE_URL is required for this command")
	}
	return db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
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

	// Repositories: Postgres when DATABASE_URL is set, otherwise everything
	// runs in memory and nothing survives a restart.
	var (
		pool        *pgxpool.Pool
		userRepo    identity.UserRepository
		patientRepo identity.PatientRepository
		vitalsLog   monitoring.VitalsLogRepository
		alertRepo   alerts.Repository
	)
	if cfg.InMemoryOnly() {
		logger.Warn().Msg("DATABASE_URL not set, running with in-memory repositories")
		userRepo = identity.NewMemoryUserRepo()
		patientRepo = identity.NewMemoryPatientRepo()
		vitalsLog = monitoring.NewMemoryVitalsLog(cfg.HistorySize)
		alertRepo = alerts.NewMemoryRepo()
	} else {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
		userRepo = identity.NewUserRepoPG(pool)
		patientRepo = identity.NewPatientRepoPG(pool)
		vitalsLog = monitoring.NewVitalsLogRepoPG(pool)
		alertRepo = alerts.NewRepoPG(pool)
	}

	identitySvc := identity.NewService(userRepo, patientRepo)
	if cfg.SeedDemoData {
		if err := identitySvc.Seed(ctx, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	// Risk classifier: trained artifact when present, rule fallback otherwise.
	var classifier monitoring.Classifier = monitoring.RuleClassifier{}
	modelInfo := monitoring.ModelInfo{Loaded: false, Kind: "rule_based"}
	if model, err := monitoring.LoadModel(cfg.ModelPath); err != nil {
		logger.Warn().Err(err).Str("path", cfg.ModelPath).
			Msg("model unavailable, using rule-based classifier")
	} else {
		classifier = model
		modelInfo = monitoring.ModelInfo{Loaded: true, Kind: "logistic"}
		logger.Info().Str("path", cfg.ModelPath).Msg("loaded trained risk model")
	}

	regOpts := []monitoring.Option{
		monitoring.WithHistorySize(cfg.HistorySize),
		monitoring.WithTickInterval(cfg.TickInterval),
	}
	if cfg.SimSeed != 0 {
		regOpts = append(regOpts, monitoring.WithSeed(cfg.SimSeed))
	}
	registry := monitoring.NewRegistry(classifier, regOpts...)

	patients, err := identitySvc.ListPatients(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load patient roster")
	}
	for _, p := range patients {
		registry.Register(p.ID, monitoring.Vitals{
			HeartRate:   p.BaselineHR,
			Temperature: p.BaselineTemp,
			SpO2:        p.BaselineSpO2,
		})
	}
	logger.Info().Int("patients", len(patients)).Msg("patient walks registered")

	roster := &rosterAdapter{svc: identitySvc}
	monitoringSvc := monitoring.NewService(registry, roster, vitalsLog, modelInfo)

	alertEngine := alerts.NewEngine(alerts.EngineConfig{
		Repo:   alertRepo,
		Roster: roster,
		Logger: logger,
	})

	simulator := monitoring.NewSimulator(registry, monitoring.SimulatorConfig{
		Interval:     cfg.TickInterval,
		PersistEvery: cfg.PersistEvery,
		VitalsLog:    vitalsLog,
		Observers:    []monitoring.SnapshotObserver{alertEngine},
		Logger:       logger,
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	jwtCfg := auth.JWTConfig{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	if cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET not set, using development signing key")
		jwtCfg.Secret = []byte(devJWTSecret)
	}
	authMW := auth.JWTMiddleware(jwtCfg)
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware(jwtCfg)
	}

	public := e.Group("/api/v1")
	api := e.Group("/api/v1", authMW)

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	public.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RateLimit(rateLimitCfg))

	identity.NewHandler(identitySvc, jwtCfg).RegisterRoutes(public, api)
	monitoring.NewHandler(monitoringSvc).RegisterRoutes(api)
	alerts.NewHandler(alertRepo, alertEngine, monitoringSvc).RegisterRoutes(api)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Simulation loop runs next to the HTTP server; cancelling the context
	// stops it during shutdown.
	simCtx, stopSim := context.WithCancel(ctx)
	defer stopSim()
	go simulator.Start(simCtx)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopSim()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
