package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/shopfox/shopfox/app/repository"
	"github.com/shopfox/shopfox/internal/pkg/authbridge"
	"github.com/shopfox/shopfox/internal/pkg/cache"
	"github.com/shopfox/shopfox/internal/pkg/clientstore"
	"github.com/shopfox/shopfox/internal/pkg/database"
	"github.com/shopfox/shopfox/internal/pkg/env"
	"github.com/shopfox/shopfox/internal/pkg/provider"
	"github.com/shopfox/shopfox/internal/pkg/router"
)

func main() {
	app, cleanup := NewApplication()

	// Release bridges and the provider event stream on shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		cleanup()
		app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Auth/data provider and per-client bridges
	prov := provider.NewLocal(cache.GetClient(), repository.GetGlobalFactory().GetRepositories())
	prov.Start(context.Background())

	store := clientstore.NewRedisStore(cache.GetClient())
	baseURL := env.GetEnv("APP_BASE_URL", "http://localhost:4000")
	manager := authbridge.NewManager(prov, cache.GetClient(), store, baseURL)

	// Evict bridges of clients that stopped showing up
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	manager.StartSweeper(sweepCtx)

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/shopfox to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// ignore and cache favicon
	app.Use(favicon.New(favicon.Config{
		File:         basePath + "public/assets/icons/favicon.ico",
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, router.Deps{Manager: manager, Store: store})

	cleanup := func() {
		stopSweeper()
		manager.CloseAll()
		prov.Close()
	}

	return app, cleanup
}
