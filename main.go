package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dat0801/shopwave/controllers"
	"github.com/Dat0801/shopwave/database"
	"github.com/Dat0801/shopwave/kafka"
	"github.com/Dat0801/shopwave/middleware"
	"github.com/Dat0801/shopwave/models"
	aws_pkg "github.com/Dat0801/shopwave/pkg/aws"
	"github.com/Dat0801/shopwave/repository"
	"github.com/Dat0801/shopwave/routes"
	"github.com/Dat0801/shopwave/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := LoadConfig(logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.ConnectPostgres(cfg.Postgres, logger,
		&models.Product{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer producer.Close()

	var snsClient aws_pkg.SNSPublisher
	if cfg.SNSTopicARN != "" {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			logger.Warn("Failed to load AWS config, SNS mirroring disabled", zap.Error(err))
		} else {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
	}

	productRepo := repository.NewGormProductRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	cartStore := repository.NewRedisCartStore(redisClient, cfg.CartTTL)

	notifier := services.NewNotifier(producer, snsClient, cfg.SNSTopicARN, logger)
	stripeClient := services.NewStripeClient(cfg.StripeSecretKey)

	couponSvc := services.NewCouponService(couponRepo, logger)
	productSvc := services.NewProductService(productRepo, logger)
	cartSvc := services.NewCartService(cartStore, productRepo, couponSvc, logger)
	paymentSvc := services.NewPaymentService(stripeClient, paymentRepo, orderRepo, notifier, logger)
	webhookSvc := services.NewWebhookService(cfg.StripeWebhookSecret, paymentRepo, orderRepo, notifier, logger)
	orderSvc := services.NewOrderService(orderRepo, cartStore, paymentSvc, notifier, cfg.Currency, logger)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	routes.SetupRoutes(router, routes.Controllers{
		Cart:    controllers.NewCartController(cartSvc),
		Order:   controllers.NewOrderController(orderSvc),
		Payment: controllers.NewPaymentController(paymentSvc, webhookSvc, orderSvc, cfg.Currency, logger),
		Coupon:  controllers.NewCouponController(couponSvc),
		Product: controllers.NewProductController(productSvc),
	}, cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	if err := database.Close(db); err != nil {
		logger.Error("Failed to close database pool", zap.Error(err))
	}

	logger.Info("Server stopped")
}
