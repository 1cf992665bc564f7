package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventticketing/config"
	_ "eventticketing/docs"
	"eventticketing/internal/adapters/auth"
	"eventticketing/internal/adapters/changefeed"
	"eventticketing/internal/adapters/email"
	"eventticketing/internal/adapters/payment"
	"eventticketing/internal/adapters/redislock"
	deliveryhttp "eventticketing/internal/delivery/http"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
	"eventticketing/internal/repository/postgres"
	"eventticketing/internal/services"
)

//go:generate swag init -g cmd/api/main.go -o docs --dir ../..

// @title Event Ticketing API
// @version 1.0
// @description Events, resources, registrations with waitlist, paid orders and QR check-in.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Info("connected to postgres")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	ticketTypeRepo := postgres.NewTicketTypeRepository(db)
	resourceRepo := postgres.NewResourceRepository(db)
	allocationRepo := postgres.NewAllocationRepository(db)
	regRepo := postgres.NewRegistrationRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	checkInRepo := postgres.NewCheckInRepository(db)

	// Adapters
	jwt := auth.NewJWT(cfg.JWTSecret, cfg.JWTExpiry)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	gateway, err := payment.NewGateway(payment.Config{KeyID: cfg.PaymentKeyID, KeySecret: cfg.PaymentKeySecret}, logger)
	if err != nil {
		return err
	}
	publisher, err := changefeed.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	var locker domain.Locker = redislock.Noop{}
	if cfg.RedisURL != "" {
		redisClient, err := redislock.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = redislock.NewLocker(redisClient, cfg.LockTTL, logger)
		logger.Info("using redis locks")
	}

	// Services
	emailSvc := services.NewEmailService(mailer, renderer, logger)
	notifier := services.NewNotifier(publisher, emailSvc, userRepo, eventRepo, logger)
	authSvc := services.NewAuthService(userRepo, auth.NewBcryptHasher(auth.DefaultCost), jwt)
	inventorySvc := services.NewInventoryService(resourceRepo, cfg.RequestTimeout)
	allocationSvc := services.NewAllocationService(allocationRepo, eventRepo, notifier, logger, cfg.RequestTimeout)
	eventSvc := services.NewEventService(eventRepo, ticketTypeRepo, resourceRepo, allocationRepo, notifier, logger, cfg.RequestTimeout)
	waitlistSvc := services.NewWaitlistService(regRepo, eventRepo, notifier, logger, cfg.RequestTimeout)
	registrationSvc := services.NewRegistrationService(regRepo, eventRepo, ticketTypeRepo, waitlistSvc, notifier, logger, cfg.RequestTimeout)
	orderSvc := services.NewOrderService(orderRepo, ticketTypeRepo, eventRepo, resourceRepo, regRepo,
		gateway, locker, notifier, cfg.PaymentCurrency, logger, cfg.RequestTimeout)
	checkInSvc := services.NewCheckInService(checkInRepo, regRepo, orderRepo, eventRepo, userRepo,
		allocationSvc, locker, notifier, logger, cfg.RequestTimeout)

	// HTTP
	router := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:         controllers.NewAuthController(logger, authSvc),
		Event:        controllers.NewEventController(logger, eventSvc),
		Resource:     controllers.NewResourceController(logger, inventorySvc),
		Allocation:   controllers.NewAllocationController(logger, allocationSvc),
		Registration: controllers.NewRegistrationController(logger, registrationSvc, waitlistSvc),
		Order:        controllers.NewOrderController(logger, orderSvc),
		CheckIn:      controllers.NewCheckInController(logger, checkInSvc),
	}, jwt, middleware.NewRateLimiter(cfg.CheckInRatePerSecond, cfg.CheckInBurst), logger)

	var handler http.Handler = router
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
