package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/commerce-service/config"
	"github.com/fekuna/commerce-service/pkg/broker"
	"github.com/fekuna/commerce-service/pkg/cache"
	"github.com/fekuna/commerce-service/pkg/db/postgres"
	"github.com/fekuna/commerce-service/pkg/logger"

	cartH "github.com/fekuna/commerce-service/internal/cart/handler"
	cartRepoPkg "github.com/fekuna/commerce-service/internal/cart/repository"
	cartUCPkg "github.com/fekuna/commerce-service/internal/cart/usecase"

	catH "github.com/fekuna/commerce-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/commerce-service/internal/category/repository"
	catUCPkg "github.com/fekuna/commerce-service/internal/category/usecase"

	invH "github.com/fekuna/commerce-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/commerce-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/commerce-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/commerce-service/internal/inventory/usecase"

	orderH "github.com/fekuna/commerce-service/internal/order/handler"
	orderRepoPkg "github.com/fekuna/commerce-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/commerce-service/internal/order/usecase"

	prodH "github.com/fekuna/commerce-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/commerce-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/commerce-service/internal/product/usecase"

	reviewH "github.com/fekuna/commerce-service/internal/review/handler"
	reviewRepoPkg "github.com/fekuna/commerce-service/internal/review/repository"
	reviewUCPkg "github.com/fekuna/commerce-service/internal/review/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	cartRepo := cartRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	reviewRepo := reviewRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Kafka
	orderProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
	})
	defer orderProducer.Close()

	channelConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ChannelsTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer channelConsumer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("orders_topic", cfg.Kafka.OrdersTopic),
		zap.String("channels_topic", cfg.Kafka.ChannelsTopic))

	// 6. Initialize UseCases
	catUC := catUCPkg.NewCategoryUseCase(catRepo, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, prodRepo, redisClient, appLogger)
	cartUC := cartUCPkg.NewCartUseCase(cartRepo, prodRepo, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, cartRepo, prodRepo, invUC, orderProducer, appLogger)
	reviewUC := reviewUCPkg.NewReviewUseCase(reviewRepo, prodRepo, orderRepo, appLogger)

	// 6.5 Initialize Listeners
	invListener := invListenerPkg.NewInventoryListener(channelConsumer, invUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go invListener.Start(ctx)

	// 7. Initialize Handlers and Routes
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	catH.NewCategoryHandler(catUC, appLogger).RegisterRoutes(api)
	prodH.NewProductHandler(prodUC, appLogger).RegisterRoutes(api)
	invH.NewInventoryHandler(invUC, appLogger).RegisterRoutes(api)
	cartH.NewCartHandler(cartUC, appLogger).RegisterRoutes(api)
	orderH.NewOrderHandler(orderUC, appLogger).RegisterRoutes(api)
	reviewH.NewReviewHandler(reviewUC, appLogger).RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 8. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
