package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nik-nicole/energym1-sub001/cache"
	"github.com/Nik-nicole/energym1-sub001/cart"
	"github.com/Nik-nicole/energym1-sub001/database"
	"github.com/Nik-nicole/energym1-sub001/handlers"
	"github.com/Nik-nicole/energym1-sub001/images"
	"github.com/Nik-nicole/energym1-sub001/kafka"
	"github.com/Nik-nicole/energym1-sub001/middleware"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitDB(logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Initialize Redis
	redisClient, err := cache.InitRedis(logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}

	// Initialize Kafka producer
	producer, err := kafka.InitProducer(logger)
	if err != nil {
		logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
	}

	// Initialize OpenTelemetry
	shutdownTracing, err := middleware.InitTracing("energym")
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	uploader := images.NewHTTPUploader()
	cartStore := cart.NewRedisStore(redisClient, logger)

	router := setupRouter(db, redisClient, producer, cartStore, uploader, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("EnerGym started", zap.String("port", port))

	gracefulShutdown(srv, db, redisClient, producer, shutdownTracing, logger)
}

func setupRouter(
	db *sql.DB,
	redisClient *redis.Client,
	producer sarama.SyncProducer,
	cartStore cart.Store,
	uploader images.Uploader,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// OpenTelemetry middleware must be first to extract trace context
	router.Use(otelgin.Middleware("energym"))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", middleware.PrometheusHandler())

	authHandler := handlers.NewAuthHandler(db, logger)
	sedeHandler := handlers.NewSedeHandler(db, logger)
	planHandler := handlers.NewPlanHandler(db, logger)
	productHandler := handlers.NewProductHandler(db, redisClient, uploader, logger)
	newsHandler := handlers.NewNewsHandler(db, logger)
	cartHandler := handlers.NewCartHandler(db, cartStore, logger)
	orderHandler := handlers.NewOrderHandler(db, producer, logger)
	paymentHandler := handlers.NewPaymentHandler(db, producer, logger)
	adminHandler := handlers.NewAdminHandler(db, producer, logger)

	// Public catalog and auth
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.GET("/sedes", sedeHandler.GetSedes)
	router.GET("/sedes/:id", sedeHandler.GetSede)
	router.GET("/plans", planHandler.GetPlans)
	router.GET("/plans/:id", planHandler.GetPlan)
	router.GET("/products", productHandler.GetProducts)
	router.GET("/products/:id", productHandler.GetProduct)
	router.GET("/news", newsHandler.GetNews)
	router.GET("/news/:id", newsHandler.GetNewsItem)

	// Authenticated (any role)
	auth := router.Group("/")
	auth.Use(middleware.RequireAuth())
	{
		auth.GET("/profile", authHandler.Profile)

		auth.GET("/cart", cartHandler.GetCart)
		auth.POST("/cart/items", cartHandler.AddItem)
		auth.PATCH("/cart/items/:productId", cartHandler.UpdateItem)
		auth.DELETE("/cart/items/:productId", cartHandler.RemoveItem)
		auth.DELETE("/cart", cartHandler.ClearCart)

		auth.POST("/orders", orderHandler.CreateOrder)
		auth.GET("/orders", orderHandler.GetOrders)
		auth.GET("/orders/:id", orderHandler.GetOrder)

		auth.POST("/payments/simulate", paymentHandler.SimulatePayment)
	}

	// Admin back office
	admin := router.Group("/admin")
	admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	{
		admin.POST("/sedes", sedeHandler.CreateSede)
		admin.PUT("/sedes/:id", sedeHandler.UpdateSede)
		admin.DELETE("/sedes/:id", sedeHandler.DeleteSede)

		admin.POST("/plans", planHandler.CreatePlan)
		admin.PUT("/plans/:id", planHandler.UpdatePlan)
		admin.DELETE("/plans/:id", planHandler.DeletePlan)

		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.POST("/uploads", productHandler.UploadImage)

		admin.POST("/news", newsHandler.CreateNews)
		admin.PUT("/news/:id", newsHandler.UpdateNews)
		admin.DELETE("/news/:id", newsHandler.DeleteNews)

		admin.GET("/users", adminHandler.GetUsers)
		admin.PATCH("/users/:id/active", adminHandler.SetUserActive)
		admin.PATCH("/users/:id/plan", adminHandler.SetUserPlan)

		admin.GET("/orders", adminHandler.GetOrders)
		admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
		admin.DELETE("/orders/:id", adminHandler.DeleteOrder)
	}

	return router
}

// gracefulShutdown handles SIGINT/SIGTERM and closes everything in order.
func gracefulShutdown(
	srv *http.Server,
	db *sql.DB,
	redisClient *redis.Client,
	producer sarama.SyncProducer,
	shutdownTracing func(),
	logger *zap.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received. Exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("Server stopped gracefully")
	}

	if err := producer.Close(); err != nil {
		logger.Error("Failed to close Kafka producer", zap.Error(err))
	} else {
		logger.Info("Kafka producer closed gracefully")
	}

	if err := db.Close(); err != nil {
		logger.Error("Failed to close database", zap.Error(err))
	} else {
		logger.Info("Database connection closed gracefully")
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis", zap.Error(err))
	} else {
		logger.Info("Redis connection closed gracefully")
	}

	shutdownTracing()
	logger.Info("EnerGym exited gracefully")
}
