package cmd

import (
	"context"
	"fillop/database"
	"fillop/logger"
	"fillop/routers"
	"fillop/utils"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and serve the HTTP API",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := bootstrap()
	if err != nil {
		logger.Log.Fatal("startup failed", "error", err)
	}
	defer logger.Log.Sync()

	if err := database.Migrate(database.Database.Db); err != nil {
		logger.Log.Fatal("migration failed", "error", err)
	}

	utils.InitMailer(cfg)
	throttle := utils.InitOTPThrottle(cfg, database.Database.Db)
	if closer, ok := throttle.(io.Closer); ok {
		defer closer.Close()
	}

	scheduler := utils.InitializeCleanupScheduler()

	app := routers.New(routers.Options{
		RequestLog:  true,
		StaticDir:   "./public",
		BodyLimitMB: cfg.MaxUploadMB,
	})

	go func() {
		logger.Log.Info("server is running", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Log.Error("server stopped unexpectedly", "error", err)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals
	logger.Log.Info("shutting down")

	stopped := scheduler.Stop()
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logger.Log.Error("server shutdown failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		logger.Log.Warn("cleanup job still running at exit")
	}
}
