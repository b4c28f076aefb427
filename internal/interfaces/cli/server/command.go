package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sunstrike-inc/sunstrike/internal/application/subscription/usecases"
	"github.com/sunstrike-inc/sunstrike/internal/domain/proxy"
	proxyVO "github.com/sunstrike-inc/sunstrike/internal/domain/proxy/valueobjects"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/config"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/database"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/repository"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/scheduler"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/xray"
	httpRouter "github.com/sunstrike-inc/sunstrike/internal/interfaces/http"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the subscription management server",
		Long:  `Start the HTTP API together with the background reconciler that keeps the xray configuration in sync with the subscription database.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting server", "environment", env)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	vlessCfg, err := proxyVO.NewVLESSConfig(
		cfg.VLESS.Host,
		uint16(cfg.VLESS.Port),
		cfg.VLESS.Flow,
		cfg.VLESS.Fingerprint,
		cfg.VLESS.RealityPublicKey,
		cfg.VLESS.RealityServerName,
		cfg.VLESS.RealityShortID,
	)
	if err != nil {
		return fmt.Errorf("invalid vless configuration: %w", err)
	}

	subscriptionRepo := repository.NewSubscriptionRepository(database.Get(), log)
	controller := xray.NewController(cfg.Proxy, xray.NewExecRunner(), log)
	links := proxy.NewLinkGenerator(vlessCfg, cfg.VLESS.Remark)

	reconcileUC := usecases.NewReconcileSubscriptionsUseCase(
		subscriptionRepo,
		controller,
		links,
		cfg.VLESS.EmailDomain,
		cfg.VLESS.Flow,
		cfg.Reconciler.RetainLinkOnDeactivate,
		log,
	)
	maintainUC := usecases.NewMaintainProxyUseCase(controller, log)

	schedulerManager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := schedulerManager.RegisterReconcileJob(reconcileUC, cfg.Reconciler.Interval()); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}
	if err := schedulerManager.RegisterMaintenanceJob(maintainUC); err != nil {
		return fmt.Errorf("failed to register maintenance job: %w", err)
	}
	schedulerManager.Start()
	defer func() {
		if err := schedulerManager.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	router := httpRouter.NewRouter(database.Get(), redisClient, cfg, log)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
