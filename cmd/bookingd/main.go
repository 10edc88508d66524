package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sanatruk/snowpro-armenia/internal/catalog"
	"github.com/sanatruk/snowpro-armenia/internal/gateway/stripegw"
	"github.com/sanatruk/snowpro-armenia/internal/httpserver"
	"github.com/sanatruk/snowpro-armenia/internal/store/gormstore"
	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

const (
	flagDatabaseURL         = "database-url"
	flagListenAddr          = "listen-addr"
	flagStripeSecretKey     = "stripe-secret-key"
	flagStripeWebhookSecret = "stripe-webhook-secret"
	flagAppBaseURL          = "app-base-url"
	flagAllowedOrigins      = "allowed-origins"
	flagJWTSigningKey       = "jwt-signing-key"
	flagJWTIssuer           = "jwt-issuer"
	flagJWTCookieName       = "jwt-cookie-name"
	flagCatalogMode         = "catalog-mode"
	flagSeedRoster          = "seed-static-roster"

	defaultDatabaseURL = "sqlite:///tmp/snowpro.db"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bookingd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := httpserver.Config{}
	seedRoster := false
	cmd := &cobra.Command{
		Use:           "bookingd",
		Short:         "Ski and snowboard lesson booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg, &seedRoster)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, seedRoster)
		},
	}

	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL connection string or sqlite path")
	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagStripeSecretKey, "", "Stripe API secret key (required)")
	cmd.Flags().String(flagStripeWebhookSecret, "", "Stripe webhook signing secret (required)")
	cmd.Flags().String(flagAppBaseURL, "", "public base URL used for checkout redirects (required)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagJWTSigningKey, "", "TAuth JWT signing key (required)")
	cmd.Flags().String(flagJWTIssuer, "", "expected JWT issuer")
	cmd.Flags().String(flagJWTCookieName, "", "JWT cookie name")
	cmd.Flags().String(flagCatalogMode, "", "instructor directory source: live or static")
	cmd.Flags().Bool(flagSeedRoster, false, "upsert the built-in instructor roster at startup")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *httpserver.Config, seedRoster *bool) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	envBindings := map[string]string{
		flagDatabaseURL:         "DATABASE_URL",
		flagListenAddr:          "LISTEN_ADDR",
		flagStripeSecretKey:     "STRIPE_SECRET_KEY",
		flagStripeWebhookSecret: "STRIPE_WEBHOOK_SECRET",
		flagAppBaseURL:          "APP_BASE_URL",
		flagAllowedOrigins:      "ALLOWED_ORIGINS",
		flagJWTSigningKey:       "SESSION_SIGNING_KEY",
		flagJWTIssuer:           "SESSION_ISSUER",
		flagJWTCookieName:       "SESSION_COOKIE_NAME",
		flagCatalogMode:         "CATALOG_MODE",
		flagSeedRoster:          "SEED_STATIC_ROSTER",
	}
	for flagName, envName := range envBindings {
		if err := v.BindEnv(flagName, envName); err != nil {
			return err
		}
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.StripeSecretKey = strings.TrimSpace(v.GetString(flagStripeSecretKey))
	cfg.StripeWebhookSecret = strings.TrimSpace(v.GetString(flagStripeWebhookSecret))
	cfg.AppBaseURL = strings.TrimSpace(v.GetString(flagAppBaseURL))
	cfg.AllowedOrigins = httpserver.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.SessionSigningKey = v.GetString(flagJWTSigningKey)
	cfg.SessionIssuer = strings.TrimSpace(v.GetString(flagJWTIssuer))
	cfg.SessionCookieName = strings.TrimSpace(v.GetString(flagJWTCookieName))
	cfg.CatalogMode = strings.TrimSpace(v.GetString(flagCatalogMode))
	*seedRoster = v.GetBool(flagSeedRoster)

	return cfg.Validate()
}

func runServer(ctx context.Context, cfg httpserver.Config, seedRoster bool) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer cleanup()

	if err := prepareSchema(gormDB, driver); err != nil {
		return err
	}

	store := gormstore.New(gormDB)
	if seedRoster {
		for _, instructor := range catalog.StaticInstructors() {
			if err := store.UpsertInstructor(ctx, instructor); err != nil {
				return fmt.Errorf("seed roster: %w", err)
			}
		}
		logger.Info("static roster seeded", zap.Int("instructors", len(catalog.StaticInstructors())))
	}

	gateway, err := stripegw.New(cfg.StripeSecretKey)
	if err != nil {
		return fmt.Errorf("stripe gateway init: %w", err)
	}
	webhooks, err := stripegw.NewWebhookParser(cfg.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("webhook parser init: %w", err)
	}

	now := func() time.Time { return time.Now().UTC() }
	operationLogger := zapOperationLogger{logger: logger}
	service, err := booking.NewService(store, gateway, now, cfg.AppBaseURL, booking.WithOperationLogger(operationLogger))
	if err != nil {
		return fmt.Errorf("booking service init: %w", err)
	}
	reconciler, err := booking.NewReconciler(store, now, operationLogger)
	if err != nil {
		return fmt.Errorf("reconciler init: %w", err)
	}

	var directory catalog.Catalog
	if cfg.CatalogMode == httpserver.CatalogModeStatic {
		directory = catalog.NewStaticCatalog()
	} else {
		directory = catalog.NewLiveCatalog(store)
	}

	return httpserver.Run(ctx, cfg, httpserver.Dependencies{
		Logger:     logger,
		Bookings:   service,
		Reconciler: reconciler,
		Webhooks:   webhooks,
		Directory:  directory,
	})
}

// zapOperationLogger emits one structured line per booking operation.
type zapOperationLogger struct {
	logger *zap.Logger
}

func (operationLogger zapOperationLogger) LogOperation(ctx context.Context, entry booking.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.StudentID != "" {
		fields = append(fields, zap.String("student_id", entry.StudentID))
	}
	if entry.BookingID != "" {
		fields = append(fields, zap.String("booking_id", entry.BookingID))
	}
	if entry.SlotID != "" {
		fields = append(fields, zap.String("slot_id", entry.SlotID))
	}
	if entry.EventID != "" {
		fields = append(fields, zap.String("event_id", entry.EventID))
	}
	if entry.Amount != 0 {
		fields = append(fields, zap.Int64("amount", entry.Amount))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn("booking operation", fields...)
		return
	}
	operationLogger.logger.Info("booking operation", fields...)
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	gormCfg := &gorm.Config{}
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormCfg)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "snowpro.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

func prepareSchema(db *gorm.DB, driver string) error {
	if driver != "sqlite" {
		return nil
	}
	err := db.AutoMigrate(
		&gormstore.Instructor{},
		&gormstore.AvailabilitySlot{},
		&gormstore.Booking{},
		&gormstore.Payment{},
		&gormstore.Review{},
		&gormstore.GatewayEvent{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
