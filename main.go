package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"dreamhome/web/internal/admin"
	"dreamhome/web/internal/api"
	"dreamhome/web/internal/api/handlers"
	"dreamhome/web/internal/api/middleware"
	"dreamhome/web/internal/cache"
	"dreamhome/web/internal/captcha"
	"dreamhome/web/internal/client"
	"dreamhome/web/internal/config"
	"dreamhome/web/internal/db"
	"dreamhome/web/internal/diagnostics"
	"dreamhome/web/internal/email"
	"dreamhome/web/internal/listing"
	"dreamhome/web/internal/logging"
	"dreamhome/web/internal/payment"
	"dreamhome/web/internal/purchases"
	"dreamhome/web/internal/services"
	"dreamhome/web/internal/session"
	"dreamhome/web/internal/storage"
	"dreamhome/web/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'web', 'bg' (background tasks), 'img' (image processing), 'all' (default)")

// Idle listing browsers are dropped after this long.
const browserIdleTimeout = 30 * time.Minute

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs sessions, the task queue and the mock mailbox.
	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			logger.Error("error disconnecting from Redis", zap.Error(err))
		}
	}()

	// The purchase ledger degrades to read-empty/write-fail without Mongo.
	ledger := purchases.Unavailable()
	mongoClient, mongoDb, err := db.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		logger.Warn("MongoDB unavailable, purchase history disabled", zap.Error(err))
	} else {
		defer func() {
			if err := db.DisconnectDB(mongoClient); err != nil {
				logger.Error("error disconnecting from MongoDB", zap.Error(err))
			}
		}()
		if err := purchases.EnsureIndexes(ctx, mongoDb); err != nil {
			logger.Warn("failed to ensure purchase indexes", zap.Error(err))
		}
		ledger = purchases.NewLedger(mongoDb)
	}

	// S3 is optional: without a bucket, admin image uploads are disabled.
	var objectStorage storage.IS3Storage
	var objectStore tasks.ObjectStore
	if cfg.AwsS3Bucket != "" {
		s3Client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to load AWS config for S3 client", zap.Error(err))
		}
		objectStorage = storage.NewS3Storage(cfg, s3Client, logger)
		objectStore = s3Client
	} else {
		logger.Info("AWS_S3_BUCKET not set, image uploads disabled")
	}

	// Email: the primary sender plus an optional file log, fanned out.
	var primaryEmailSender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" {
		logger.Info("MOCK_SERVICES enabled, using Redis email sender")
		primaryEmailSender = email.NewRedisSender(redisClient, cfg.SmtpFromAddress, logger)
	} else {
		primaryEmailSender = email.NewSMTPSender(cfg, logger)
	}
	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)
	if logEmailsPath := os.Getenv("LOG_EMAILS"); logEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(logEmailsPath, logger)
		if err != nil {
			logger.Warn("failed to initialize file email sender, proceeding without it",
				zap.String("path", logEmailsPath), zap.Error(err))
		} else {
			compositeSender.AddSender(fileSender)
			logger.Info("file email logger added", zap.String("path", logEmailsPath))
		}
	}

	// Backend client and services. The bearer token comes from the request's session.
	apiClient := client.New(cfg.APIBaseURL,
		client.WithTokenSource(session.ContextTokens{}),
		client.WithTimeout(cfg.BackendTimeout),
		client.WithLogger(logger),
	)
	propertyService := services.NewPropertyService(apiClient)
	authService := services.NewAuthService(apiClient)
	adminService := services.NewAdminService(apiClient)
	adminPropertyService := services.NewAdminPropertyService(apiClient)
	paymentService := services.NewPaymentService(apiClient)

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()
	enqueuer := tasks.NewEnqueuer(taskClient, logger)
	taskProcessor := tasks.NewTaskProcessor(cfg, compositeSender, objectStore, logger)

	prober := diagnostics.NewProber(apiClient, propertyService, authService, logger)

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	// Service API (always runs)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(redisClient, prober, shutdownChan, logger),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("service API listening", zap.String("port", cfg.ServiceApiPort))
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("service API ListenAndServe error", zap.Error(err))
		}
		logger.Info("service API server stopped")
	}()

	var webSrv *http.Server
	var taskSrvs []*asynq.Server

	logger.Info("starting application", zap.String("mode", cfg.RunMode))

	webMode := func() {
		browsers := listing.NewRegistry(propertyService, browserIdleTimeout, logger)
		limiter := middleware.NewRateLimiterMiddleware(cfg.RateLimitBucketSize, cfg.RateLimitRefillRate, logger)
		go browsers.Run(ctx)
		go limiter.Run(ctx)

		var images handlers.ImageQueue
		if objectStorage != nil {
			images = enqueuer
		}

		router, err := api.SetupRouter(api.Deps{
			Config:     cfg,
			Logger:     logger,
			Sessions:   session.NewManager(session.NewRedisStore(redisClient), cfg.SessionTTL, cfg.BackendJWTSecret, logger),
			Properties: propertyService,
			Auth:       authService,
			Admin:      adminService,
			Browsers:   browsers,
			Users:      admin.NewUserManager(adminService, logger),
			Listings:   admin.NewPropertyManager(adminPropertyService, logger),
			Inquiries:  admin.NewInquiryManager(adminService, enqueuer, logger),
			Checkout: payment.NewCheckout(paymentService, propertyService, ledger, enqueuer, payment.Options{
				KeyID:    cfg.CheckoutKeyID,
				Currency: cfg.CheckoutCurrency,
				Theme:    cfg.CheckoutTheme,
			}, logger),
			Ledger:      ledger,
			Storage:     objectStorage,
			Images:      images,
			Captcha:     captcha.NewTurnstileVerifier(cfg, logger),
			Prober:      prober,
			RateLimiter: limiter,
		})
		if err != nil {
			logger.Fatal("failed to set up web router", zap.Error(err))
		}

		webSrv = &http.Server{
			Addr:    ":" + cfg.WebPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("web server listening", zap.String("port", cfg.WebPort))
			if err := webSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("web ListenAndServe error", zap.Error(err))
			}
			logger.Info("web server stopped")
		}()
	}

	workerMode := func(name string, isImageWorker, isBgWorker bool) {
		if isImageWorker && objectStore == nil {
			logger.Warn("image worker requested without S3 configuration, skipping")
			isImageWorker = false
		}
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, isImageWorker, isBgWorker, logger)
		if srv == nil {
			return
		}
		taskSrvs = append(taskSrvs, srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("task server starting", zap.String("worker", name))
			if err := srv.Run(mux); err != nil {
				logger.Fatal("task server error", zap.String("worker", name), zap.Error(err))
			}
			logger.Info("task server stopped", zap.String("worker", name))
		}()
	}

	switch cfg.RunMode {
	case "web":
		webMode()
	case "bg":
		workerMode("background", false, true)
	case "img":
		workerMode("images", true, false)
	case "all":
		webMode()
		workerMode("background", false, true)
		workerMode("images", true, false)
	default:
		logger.Fatal("invalid run mode", zap.String("mode", cfg.RunMode))
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-shutdownChan:
		logger.Info("shutdown requested via service API")
	}
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		logger.Error("service API server shutdown error", zap.Error(err))
	}
	if webSrv != nil {
		if err := webSrv.Shutdown(ctxShutdown); err != nil {
			logger.Error("web server shutdown error", zap.Error(err))
		}
	}
	for _, srv := range taskSrvs {
		srv.Shutdown()
	}

	logger.Info("waiting for servers to stop")
	wg.Wait()
	logger.Info("server gracefully stopped")
}
