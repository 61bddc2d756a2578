package cmd

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

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/travel-agency/api"
	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/auth"
	authPostgres "github.com/frahmantamala/travel-agency/internal/auth/postgres"
	"github.com/frahmantamala/travel-agency/internal/colab"
	"github.com/frahmantamala/travel-agency/internal/core/events"
	"github.com/frahmantamala/travel-agency/internal/dossier"
	dossierPostgres "github.com/frahmantamala/travel-agency/internal/dossier/postgres"
	"github.com/frahmantamala/travel-agency/internal/dossierclient"
	"github.com/frahmantamala/travel-agency/internal/profile"
	profilePostgres "github.com/frahmantamala/travel-agency/internal/profile/postgres"
	"github.com/frahmantamala/travel-agency/internal/transport"
	"github.com/frahmantamala/travel-agency/internal/transport/rest"
	"github.com/frahmantamala/travel-agency/internal/user"
	userPostgres "github.com/frahmantamala/travel-agency/internal/user/postgres"
	"github.com/frahmantamala/travel-agency/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the dossier and collaborator API`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Bus      *events.EventBus
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.DB.Close()

	rest.RegisterAllRoutes(deps.Router, deps.Handlers, rest.Options{
		AllowedOrigins: deps.Config.Server.Origins(),
		MetricsEnabled: deps.Config.Observability.Metrics.Enabled,
		MetricsPath:    deps.Config.Observability.Metrics.Path,
		Logger:         deps.Logger,
	})

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Bus.Drain(shutdownCtx); err != nil {
			deps.Logger.Warn("Event handlers still running at shutdown", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.L()

	if _, err := api.Load(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(log)
	events.RegisterAuditLog(bus, log)

	base := transport.NewBaseHandler(log)
	health := rest.NewHealthHandler(db)

	authService := auth.NewService(
		authPostgres.NewRepository(db),
		auth.NewJWTTokenGenerator(
			config.Security.JWTSecret,
			config.Security.JWTRefreshSecret,
			config.Security.AccessTokenDuration,
			config.Security.RefreshTokenDuration,
		),
		config.Security.BCryptCost,
		log,
	)
	userService := user.NewService(userPostgres.NewUserRepository(gormDB), config.Security.BCryptCost, log)
	profileService := profile.NewService(profilePostgres.NewProfileRepository(gormDB), log)
	dossierService := dossier.NewService(
		dossierPostgres.NewDossierRepository(gormDB),
		dossierPostgres.NewHistoryRepository(db),
		bus,
		log,
	)

	colabService := newColabService(config, profileService, dossierService, bus, health, log)

	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		Bus:    bus,
		Router: chi.NewRouter(),
		Handlers: rest.Handlers{
			Health:  health,
			Auth:    auth.NewHandler(base, authService),
			User:    user.NewHandler(base, userService),
			Profile: profile.NewHandler(base, profileService),
			Dossier: dossier.NewHandler(base, dossierService),
			Colab:   colab.NewHandler(base, colabService),
		},
		Logger: log,
	}, nil
}

// newColabService runs the collaborator engine against the local services,
// or against a remote dossier API when one is configured.
func newColabService(config *internal.Config, profiles *profile.Service, dossiers *dossier.Service, bus *events.EventBus, health *rest.HealthHandler, log *slog.Logger) *colab.Service {
	serviceConfig := colab.ServiceConfig{
		SuggestionTimeout: config.Colab.SuggestionTimeout,
		WriteTimeout:      config.Colab.WriteTimeout,
	}

	if config.Colab.DossierAPIURL != "" {
		client := dossierclient.NewClient(dossierclient.Config{
			BaseURL: config.Colab.DossierAPIURL,
			Token:   config.Colab.DossierAPIToken,
		}, log)
		health.AddCheck("dossier_api", func(ctx context.Context) error {
			_, err := client.ListProfiles(ctx)
			return err
		})
		log.Info("collaborator engine uses remote dossier api", "base_url", config.Colab.DossierAPIURL)
		return colab.NewService(client, client, client, client, bus, serviceConfig, log)
	}

	adapter := dossier.NewColabAdapter(dossiers)
	return colab.NewService(profiles, adapter, adapter, adapter, bus, serviceConfig, log)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with GORM.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
