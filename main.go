package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookline/config"
	"bookline/database"
	bookingRepo "bookline/database/repository/booking"
	"bookline/handlers"
	"bookline/middleware"
	"bookline/routes"
	"bookline/services/assistant"
	"bookline/services/catalog"
	"bookline/services/extract"
	"bookline/services/scheduling"
	"bookline/services/tasks"
	"bookline/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()

	sessionCache, err := utils.NewSessionCacheClient()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect session cache: %v", err)
	}

	// Scheduling backend and catalog.
	backend := scheduling.NewHTTPClient(
		config.AppConfig.SchedulingBaseURL,
		config.AppConfig.SchedulingAPIKey,
		time.Duration(config.AppConfig.SchedulingTimeoutSec)*time.Second,
	)
	catalogSvc := catalog.NewDefaultCatalogService(backend, 10*time.Minute)

	// Session store: in-process cache over Redis blobs.
	ttl := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	durable := assistant.NewRedisSessionStore(sessionCache, ttl)
	store := assistant.NewSessionStore(durable, logger)

	reminder := tasks.NewReminderScheduler(
		config.AppConfig.RedisAddr,
		config.AppConfig.RedisPassword,
		config.AppConfig.RedisQueueDB,
		logger,
	)
	defer reminder.Close()

	reconciler := &assistant.AvailabilityReconciler{
		Backend:  backend,
		Store:    store,
		Bookings: bookingRepo.NewMongoBookingRepo(),
		Reminder: reminder,
		Logger:   logger,
	}

	assistantSvc := &assistant.DefaultAssistantService{
		Store:      store,
		Validator:  &assistant.SlotValidator{Catalog: catalogSvc, Backend: backend},
		Reconciler: reconciler,
		Logger:     logger,
	}

	var extractor extract.Extractor = &extract.LocalExtractor{Catalog: catalogSvc}
	if config.AppConfig.Extractor == "gemini" && config.AppConfig.GeminiAPIKey != "" {
		geminiExtractor, err := extract.NewGeminiExtractor(config.AppConfig.GeminiAPIKey)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Gemini extractor: %v", err)
		}
		extractor = geminiExtractor
	}

	chatHandler := handlers.NewChatHandler(assistantSvc, extractor, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	routes.RegisterRoutes(router, chatHandler)
	utils.StartHealthMonitor(sessionCache, database.MongoClient)

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
