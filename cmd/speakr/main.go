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
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/murtaza-nasir/speakr-sub001/internal/config"
	"github.com/murtaza-nasir/speakr-sub001/internal/db"
	"github.com/murtaza-nasir/speakr-sub001/internal/handler"
	"github.com/murtaza-nasir/speakr-sub001/internal/job"
	"github.com/murtaza-nasir/speakr-sub001/internal/middleware"
	"github.com/murtaza-nasir/speakr-sub001/internal/repo"
	"github.com/murtaza-nasir/speakr-sub001/internal/schedule"
	"github.com/murtaza-nasir/speakr-sub001/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "speakr",
		Short: "recording sharing backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
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
		zap.String("db", cfg.Database.DBName),
	)

	userRepo := repo.NewUserRepo(conn)
	recordingRepo := repo.NewRecordingRepo(conn)
	groupRepo := repo.NewGroupRepo(conn)
	tagRepo := repo.NewTagRepo(conn)
	auditRepo := repo.NewAuditRepo(conn)
	overlayRepo := repo.NewOverlayRepo(conn)
	ledger := repo.NewLedger(conn)

	registry := service.WrapRegistryCache(
		recordingRepo,
		cfg.Cache.OwnerLookupSize,
		time.Duration(cfg.Cache.OwnerLookupTTLSeconds)*time.Second,
	)

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours), cfg.EnableRegister)
	shareService := service.NewShareService(ledger, registry, userRepo, auditRepo, auditRepo)
	autoShareService := service.NewAutoShareService(ledger, registry, groupRepo, tagRepo, auditRepo)
	tagService := service.NewTagService(tagRepo, groupRepo, registry, ledger, autoShareService)
	groupService := service.NewGroupService(conn, groupRepo)
	recordingService := service.NewRecordingService(recordingRepo, ledger)

	deps := handler.RouterDeps{
		Auth:       handler.NewAuthHandler(authService),
		Recordings: handler.NewRecordingHandler(recordingService),
		Shares:     handler.NewShareHandler(shareService),
		Tags:       handler.NewTagHandler(tagService),
		Groups:     handler.NewGroupHandler(groupService),
		JWTSecret:  []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
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
	if err := scheduler.AddJob(job.NewOverlayRepairJob(overlayRepo), cfg.OverlayRepair); err != nil {
		return fmt.Errorf("schedule overlay repair: %w", err)
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
