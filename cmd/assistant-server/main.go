package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lifeline/donor-assistant/internal/config"
	"github.com/lifeline/donor-assistant/internal/domain/assistant"
	"github.com/lifeline/donor-assistant/internal/domain/questionnaire"
	"github.com/lifeline/donor-assistant/internal/domain/report"
	"github.com/lifeline/donor-assistant/internal/platform/ai"
	"github.com/lifeline/donor-assistant/internal/platform/auth"
	"github.com/lifeline/donor-assistant/internal/platform/db"
	"github.com/lifeline/donor-assistant/internal/platform/logging"
	"github.com/lifeline/donor-assistant/internal/platform/middleware"
	"github.com/lifeline/donor-assistant/internal/platform/reporting"
	"github.com/lifeline/donor-assistant/internal/platform/search"
	"github.com/lifeline/donor-assistant/internal/platform/session"
)

const requestTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "assistant-server",
		Short: "Blood donation eligibility assistant",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(evaluateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
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

			count, err := db.NewMigrator(pool, dir).Up(ctx)
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

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
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

// evaluateCmd re-runs the eligibility rules for one stored profile and
// prints the verdict.
func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Re-evaluate eligibility for a stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("profile-id")
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("--profile-id must be a UUID: %w", err)
			}

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

			svc := questionnaire.NewService(questionnaire.NewProfileRepoPG(pool), questionnaire.NewMemoryProgressStore(),
				nil, db.NewTransactor(pool), zerolog.Nop())
			p, err := svc.Reevaluate(ctx, id)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"profile_id": p.ID,
				"status":     p.EligibilityStatus,
				"reasons":    p.Reasons(),
			})
		},
	}
	cmd.Flags().String("profile-id", "", "Health profile UUID")
	_ = cmd.MarkFlagRequired("profile-id")
	return cmd
}

// deps are the backends the HTTP server is assembled from.
type deps struct {
	profiles  questionnaire.ProfileRepository
	progress  questionnaire.ProgressStore
	events    questionnaire.CompletionPublisher
	tx        db.Transactor
	explainer assistant.Explainer
	finder    assistant.LocationFinder
	measures  reporting.Querier
	health    echo.HandlerFunc
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	d := deps{
		profiles: questionnaire.NewProfileRepoPG(pool),
		progress: questionnaire.NewMemoryProgressStore(),
		events:   questionnaire.NopCompletionPublisher{},
		tx:       db.NewTransactor(pool),
		explainer: ai.New(ai.Config{
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
			APIKey:  cfg.AIAPIKey,
			Timeout: cfg.AITimeout,
		}),
		finder: search.New(search.Config{
			BaseURL:  cfg.SearchBaseURL,
			APIKey:   cfg.SearchAPIKey,
			EngineID: cfg.SearchEngineID,
			Timeout:  cfg.SearchTimeout,
		}),
		measures: pool,
	}

	var checks []db.Check
	if cfg.UsesRedis() {
		rdb, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		d.progress = questionnaire.NewRedisProgressStore(rdb, cfg.SessionTTL)
		d.events = questionnaire.NewRedisCompletionPublisher(rdb, cfg.CompletionStream)
		checks = append(checks, db.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info().Str("stream", cfg.CompletionStream).Msg("connected to redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, questionnaire progress is kept in memory")
	}
	d.health = db.HealthHandler(pool, checks...)

	e := newServer(cfg, logger, d)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Console:    cfg.IsDev(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.IsDev() && cfg.AuthIssuer == "" && cfg.AuthJWKSURL == "" && cfg.AuthSigningKey == "" {
		return auth.DevAuthMiddleware()
	}
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
		Skipper:  auth.AuthSkipper,
	}
	if cfg.AuthSigningKey != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
	}
	return auth.JWTMiddleware(jwtCfg)
}

func newServer(cfg *config.Config, logger zerolog.Logger, d deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader, session.HeaderName},
		ExposeHeaders: []string{session.HeaderName, middleware.RequestIDHeader, echo.HeaderContentDisposition},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RateLimit(rateLimitConfig(cfg)))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(session.Middleware(session.Config{TTL: cfg.SessionTTL, Secure: cfg.IsProduction()}))
	e.Use(authMiddleware(cfg))
	e.Use(middleware.Audit(logger))

	if d.health != nil {
		e.GET("/health", d.health)
		e.GET("/health/db", d.health)
	}

	public := e.Group("")
	apiV1 := e.Group("/api/v1")

	qSvc := questionnaire.NewService(d.profiles, d.progress, d.events, d.tx, logger)
	questionnaire.NewHandler(qSvc).RegisterRoutes(public, apiV1)

	assistant.NewHandler(assistant.NewService(d.explainer, d.finder, logger)).RegisterRoutes(public)

	report.NewHandler(report.NewService(qSvc, logger)).RegisterRoutes(public)

	if d.measures != nil {
		reporting.NewHandler(d.measures).RegisterRoutes(apiV1)
	}

	return e
}
