package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pcprompts/internal/auth"
	"pcprompts/internal/db"
	"pcprompts/internal/directory"
	"pcprompts/internal/models"
	"pcprompts/internal/router"
	"pcprompts/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var skipMigrate bool

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

// migrateCmd creates or updates the schema and seeds specialties
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := openDB()
		if err != nil {
			return err
		}
		return migrate(gdb)
	},
}

var (
	promoteEmail     string
	promoteAdmin     bool
	promoteModerator bool
)

// promoteCmd grants roles to an existing account
var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant admin or moderator role to a user",
	Example: `  pcprompts promote --email chefe@pc.sc.gov.br --admin
  pcprompts promote --email agente@pc.sc.gov.br --moderator`,
	RunE: runPromote,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run migrations on startup")

	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "Account email")
	promoteCmd.Flags().BoolVar(&promoteAdmin, "admin", false, "Grant administrator role")
	promoteCmd.Flags().BoolVar(&promoteModerator, "moderator", false, "Grant moderator role")
	_ = promoteCmd.MarkFlagRequired("email")
}

func openDB() (*gorm.DB, error) {
	gdb, err := db.Open(cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established", zap.String("driver", cfg.DBDriver))
	return gdb, nil
}

func migrate(gdb *gorm.DB) error {
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("database migration completed")
	return db.Seed(gdb, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := openDB()
	if err != nil {
		return err
	}
	if !skipMigrate {
		if err := migrate(gdb); err != nil {
			return err
		}
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set; token operations will fail until it is configured")
	}

	staff, err := directory.Load(cfg.StaffDirectoryFile)
	if err != nil {
		return fmt.Errorf("failed to load staff directory: %w", err)
	}
	verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		return err
	}

	engine, err := router.New(router.Deps{
		Config:    cfg,
		DB:        gdb,
		Logger:    logger,
		Tokens:    auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Directory: staff,
		Mail:      services.NewMailService(cfg.SMTP, cfg.FrontendURL, logger),
		Uploads:   services.NewUploadService(cfg.UploadDir, logger),
		Verifier:  verifier,
		StartedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runPromote(cmd *cobra.Command, args []string) error {
	if !promoteAdmin && !promoteModerator {
		return errors.New("nothing to do: pass --admin and/or --moderator")
	}
	gdb, err := openDB()
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if promoteAdmin {
		updates["is_admin"] = true
	}
	if promoteModerator {
		updates["is_moderator"] = true
	}
	res := gdb.Model(&models.User{}).Where("email = ?", auth.NormalizeEmail(promoteEmail)).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", promoteEmail)
	}
	logger.Info("user promoted",
		zap.String("email", promoteEmail),
		zap.Bool("admin", promoteAdmin),
		zap.Bool("moderator", promoteModerator))
	return nil
}
