package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/api"
	"github.com/atelierlabs/atelier/internal/app"
	"github.com/atelierlabs/atelier/internal/app/maintenance"
	"github.com/atelierlabs/atelier/internal/cache"
	"github.com/atelierlabs/atelier/internal/database"
	"github.com/atelierlabs/atelier/internal/identity"
	"github.com/atelierlabs/atelier/internal/middleware"
	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/internal/storage"
	"github.com/atelierlabs/atelier/pkg/logger"
	"github.com/atelierlabs/atelier/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("atelier-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Info("generated runtime secret", zap.String("key", key))
	}

	baseURL, err := app.ResolveBaseURL(cfg)
	if err != nil {
		return err
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	dbStore := cache.NewDatabaseStore(db)

	var redisClient cache.Store
	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(cache.RedisConfig{
			Address:  cfg.Cache.Redis.Address,
			Username: cfg.Cache.Redis.Username,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TLS:      cfg.Cache.Redis.TLS,
			Timeout:  cfg.Cache.Redis.Timeout,
		})
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database-backed operations", zap.Error(redisErr))
		} else {
			redisClient = client
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	defer func() {
		if rc, ok := redisClient.(*cache.RedisClient); ok && rc != nil {
			_ = rc.Close()
		}
	}()

	provider, err := buildIdentityProvider(cfg)
	if err != nil {
		return err
	}

	mailer := buildMailer(cfg, log)

	bridge, err := services.NewIdentityBridge(db, cfg.Auth.SuperadminEmail)
	if err != nil {
		return fmt.Errorf("initialise identity bridge: %w", err)
	}

	invitations, err := services.NewInvitationService(db, mailer,
		services.WithInvitationBaseURL(baseURL),
		services.WithInvitationTTL(cfg.Invitations.TTL),
		services.WithInvitationTokenSize(cfg.Invitations.TokenBytes),
	)
	if err != nil {
		return fmt.Errorf("initialise invitation service: %w", err)
	}

	portfolios, err := services.NewPortfolioService(db)
	if err != nil {
		return fmt.Errorf("initialise portfolio service: %w", err)
	}
	galleries, err := services.NewGalleryService(db)
	if err != nil {
		return fmt.Errorf("initialise gallery service: %w", err)
	}
	commissions, err := services.NewCommissionService(db)
	if err != nil {
		return fmt.Errorf("initialise commission service: %w", err)
	}
	links, err := services.NewLinkService(db)
	if err != nil {
		return fmt.Errorf("initialise link service: %w", err)
	}
	signup, err := services.NewSignupService(db, invitations, provider, bridge, portfolios)
	if err != nil {
		return fmt.Errorf("initialise signup service: %w", err)
	}
	users, err := services.NewUserAdminService(db, provider)
	if err != nil {
		return fmt.Errorf("initialise user admin service: %w", err)
	}

	uploads, err := buildUploadPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}

	cleaner := maintenance.NewCleaner(invitations, dbStore,
		maintenance.WithRetention(cfg.Invitations.Retention),
		maintenance.WithInviteSchedule(cfg.Invitations.SweepSchedule),
	)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	var rateStore middleware.RateStore
	switch {
	case redisClient != nil:
		rateStore = middleware.NewCacheRateStore(redisClient)
	default:
		rateStore = middleware.NewCacheRateStore(dbStore)
	}

	router, err := api.NewRouter(api.Options{
		Config:      cfg,
		DB:          db,
		Bridge:      bridge,
		Invitations: invitations,
		Portfolios:  portfolios,
		Galleries:   galleries,
		Commissions: commissions,
		Links:       links,
		Signup:      signup,
		Users:       users,
		Uploads:     uploads,
		RateStore:   rateStore,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("base_url", baseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func buildIdentityProvider(cfg *app.Config) (identity.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Identity.Provider)) {
	case "", "memory":
		return identity.NewMemoryProvider(), nil
	case "gotrue":
		return identity.NewHTTPProvider(identity.HTTPConfig{
			BaseURL:    cfg.Identity.BaseURL,
			ServiceKey: cfg.Identity.ServiceKey,
			Timeout:    cfg.Identity.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.Identity.Provider)
	}
}

func buildMailer(cfg *app.Config, log *zap.Logger) mail.Mailer {
	mailer, err := mail.NewSMTPMailer(mail.SMTPSettings{
		Enabled:  cfg.Email.SMTP.Enabled,
		Host:     cfg.Email.SMTP.Host,
		Port:     cfg.Email.SMTP.Port,
		Username: cfg.Email.SMTP.Username,
		Password: cfg.Email.SMTP.Password,
		From:     cfg.Email.SMTP.From,
		UseTLS:   cfg.Email.SMTP.UseTLS,
		Timeout:  cfg.Email.SMTP.Timeout,
	})
	if err != nil {
		log.Warn("smtp mailer unavailable; invitation emails disabled", zap.Error(err))
		return nil
	}
	return mailer
}

func buildUploadPipeline(ctx context.Context, cfg *app.Config, log *zap.Logger) (*storage.ImagePipeline, error) {
	if !cfg.Storage.Enabled {
		log.Info("object storage disabled; uploads endpoint will refuse requests")
		return nil, nil
	}

	store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	return storage.NewImagePipeline(store,
		storage.WithMaxSizeBytes(cfg.Uploads.MaxSizeBytes),
		storage.WithMaxEdge(cfg.Uploads.MaxEdgePixels),
		storage.WithThumbnailEdge(cfg.Uploads.ThumbnailEdge),
		storage.WithJPEGQuality(cfg.Uploads.ThumbnailJPEGQ),
	)
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
