package main

import (
	"fmt"
	"log"
	"os"

	"catasto_app_go/config"
	"catasto_app_go/db"
	"catasto_app_go/handlers"
	"catasto_app_go/logger"
	"catasto_app_go/middleware"
	"catasto_app_go/models"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "catasto")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Set(zl)

	// Deferred cleanup in run happens before the exit below
	if err := run(cfg); err != nil {
		logger.Log.Error("server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg *config.Config) error {
	services.PropagateNumeroProvenienza = cfg.PropagateNumeroProvenienza

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		return fmt.Errorf("initialize database %s: %w", cfg.DSNForLog(), err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if err := services.SeedDefaultCatalogs(db.DB); err != nil {
		return fmt.Errorf("seed catalogs: %w", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowHeaders:  []string{echo.HeaderContentType, middleware.HeaderUserID, middleware.HeaderSessionID},
		ExposeHeaders: []string{middleware.HeaderSessionID},
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})
	e.Use(middleware.ActorContext())

	limiter := handlers.RegisterRoutes(e, cfg)
	defer limiter.Stop()

	// Start server
	logger.Log.Info("server starting",
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("db_driver", cfg.DBDriver),
	)
	return e.Start(":" + cfg.ServerPort)
}
