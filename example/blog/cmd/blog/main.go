package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"go.uber.org/fx"

	database "github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/database"
	storage "github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage"
	config "github.com/sunkan/Atlas.Orm/pkg/atlas/config"
	mapper "github.com/sunkan/Atlas.Orm/pkg/atlas/mapper"
	logger "github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"

	app "github.com/sunkan/Atlas.Orm/example/blog/internal/app"
)

// embeddedConfig holds the contents of the application's YAML configuration file.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// startApplication is an Fx Hook helper function that runs the blog walkthrough
// on application startup and requests shutdown when it finishes.
func startApplication(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	conn *database.SQLConnAdapter,
	locator *mapper.Locator,
	storageConn storage.Connection,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in blog walkthrough: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				if err := app.Run(appCtx, cfg, conn, locator, storageConn); err != nil {
					logger.Errorf("Blog walkthrough failed: %v", err)
					return
				}
				logger.Infof("Blog walkthrough completed.")
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// main is the application entry point.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Stopping...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, embeddedConfig)...)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
	os.Exit(0)
}
