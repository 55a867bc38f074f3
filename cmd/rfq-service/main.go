package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"sourcing-system/internal/api/handlers"
	"sourcing-system/internal/api/middleware"
	"sourcing-system/internal/config"
	"sourcing-system/internal/infrastructure/leader"
	"sourcing-system/internal/infrastructure/mysql"
	"sourcing-system/internal/infrastructure/redis"
	ws "sourcing-system/internal/infrastructure/websocket"
	"sourcing-system/internal/services"
	"sourcing-system/pkg/logger"
)

const serviceName = "rfq-service"

func main() {
	log := logger.New()
	log.Info("Starting RFQ Service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Repositories and bus
	rfqRepo := mysql.NewMySQLRfqRepository(db)
	quoteRepo := mysql.NewMySQLQuoteRepository(db)
	eventPublisher := redis.NewEventPublisher(rdb)
	eventSubscriber := redis.NewEventSubscriber(rdb, log)
	processedEvents := redis.NewProcessedEventMarker(rdb, serviceName)

	// Coordinators
	rfqCoordinator := services.NewRfqCoordinator(rfqRepo, eventPublisher, cfg.Expiry.RfqDays, log)
	quoteCoordinator := services.NewQuoteCoordinator(quoteRepo, rfqRepo, eventPublisher, cfg.Expiry.QuoteDays, log)

	// Notification hub and event listener
	hub := ws.NewHub(log)
	listener := services.NewEventListener(serviceName, processedEvents, log)
	services.RegisterRfqReactions(listener, rfqCoordinator, hub, log)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := listener.Start(consumerCtx, eventSubscriber); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event listener stopped", "error", err)
		}
	}()

	// Leader election and expiry sweeper
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)
	sweeper := services.NewExpirySweeper(rfqCoordinator, leaderElection, cfg.Instance.ID, log)

	go func() {
		if err := sweeper.Start(consumerCtx, cfg.Sweep.Interval); err != nil {
			log.Error("Failed to start expiry sweeper", "error", err)
		}
	}()

	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became sweeper leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	// HTTP server
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}))
	e.Use(middleware.HTTPMetrics(serviceName))

	rfqHandler := handlers.NewRfqHandler(rfqCoordinator, quoteCoordinator, log)
	wsHandler := handlers.NewWebSocketHandler(hub, log)

	api := e.Group("/api", middleware.JWTAuthMiddleware(cfg.JWT.SigningKey, log))
	rfqHandler.Register(api)
	e.GET("/ws", wsHandler.Connect, middleware.JWTAuthMiddleware(cfg.JWT.SigningKey, log))

	e.GET("/metrics", middleware.MetricsHandler())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   serviceName,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting RFQ service server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down RFQ service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	stopConsumer()
	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop sweeper", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	hub.CloseAll()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("RFQ service stopped")
}
