package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/spikeapp/spike-server/internal/config"
	"github.com/spikeapp/spike-server/internal/db"
	"github.com/spikeapp/spike-server/internal/handler"
	"github.com/spikeapp/spike-server/internal/job"
	"github.com/spikeapp/spike-server/internal/middleware"
	"github.com/spikeapp/spike-server/internal/repo"
	"github.com/spikeapp/spike-server/internal/schedule"
	"github.com/spikeapp/spike-server/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "spike",
		Short: "spike account server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run spike server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			_ = godotenv.Load()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("mail_provider", cfg.Mail.Provider),
	)

	mailSender := service.NewEmailSender(cfg.Mail)
	authService := service.NewAuthService(
		conn,
		mailSender,
		[]byte(cfg.JWTSecret),
		time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute,
		cfg.Mail.ResetURLBase,
	)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Me:        handler.NewMeHandler(authService),
		Health:    handler.NewHealthHandler(conn),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewExpiredSecretsCleanupJob(
		repo.NewEmailVerificationRepo(conn),
		repo.NewPasswordResetTokenRepo(conn),
	)
	if err := scheduler.AddJob(cleanup, cfg.CleanupCron); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
