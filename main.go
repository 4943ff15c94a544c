package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentify/config"
	"rentify/database"
	extrasRepoPkg "rentify/database/repository/extras"
	vehicleRepoPkg "rentify/database/repository/vehicle"
	"rentify/handlers"
	"rentify/middleware"
	"rentify/routes"
	"rentify/services/catalog"
	"rentify/services/payment"
	"rentify/services/reservation"
	"rentify/utils"
	"rentify/workers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(cors.Default())

	// Repositories.
	vehicleRepo := vehicleRepoPkg.NewMongoVehicleRepo()
	extrasRepo := extrasRepoPkg.NewMongoExtrasRepo()

	// Services.
	catalogService := &catalog.DefaultCatalogService{
		VehicleRepo: vehicleRepo,
		ExtrasRepo:  extrasRepo,
		Cache:       utils.GetCatalogCacheClient(),
		Logger:      logger,
	}

	sessionStore := reservation.NewRedisSessionStore(
		utils.GetSessionCacheClient(),
		2*config.SessionTTL(),
	)
	timerController := reservation.NewTimerController(
		sessionStore,
		reservation.SystemScheduler(),
		reservation.SystemClock(),
		config.SessionTTL(),
		config.SessionWarningWindow(),
		logger,
	)
	reservationService := reservation.NewReservationSessionService(
		sessionStore,
		timerController,
		catalogService,
		logger,
	)

	submissionService := payment.NewStripeSubmissionService(logger)

	// Out-of-band purge worker; expirations enqueue a residue sweep.
	purgeClient := workers.NewPurgeClient()
	workers.InitPurgeWorker(sessionStore)
	reservationService.OnExpiration(func(namespace string) {
		if err := workers.EnqueuePurge(purgeClient, namespace, time.Minute); err != nil {
			logger.Warn("failed to enqueue expiration sweep",
				zap.String("namespace", namespace), zap.Error(err))
		}
	})

	reservationHandler := handlers.NewReservationHandler(reservationService, submissionService, purgeClient, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	routes.RegisterReservationRoutes(router, reservationHandler)
	routes.RegisterCatalogRoutes(router, catalogHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
