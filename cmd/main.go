package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markjakearzadon/confticket-gobackend/internal/config"
	"github.com/markjakearzadon/confticket-gobackend/internal/db"
	"github.com/markjakearzadon/confticket-gobackend/internal/events"
	"github.com/markjakearzadon/confticket-gobackend/internal/handlers"
	"github.com/markjakearzadon/confticket-gobackend/internal/health"
	"github.com/markjakearzadon/confticket-gobackend/internal/logging"
	"github.com/markjakearzadon/confticket-gobackend/internal/qr"
	"github.com/markjakearzadon/confticket-gobackend/internal/services"
	"github.com/markjakearzadon/confticket-gobackend/internal/telegram"
)

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)

	// Connect to MongoDB
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Warn("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	logger.Info("Successfully connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	database := client.Database(cfg.MongoDatabase)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		logger.Warn("Failed to ensure indexes", zap.Error(err))
	}

	// Initialize services
	identityService := services.NewIdentityService(db.NewIdentityRepository(database), logger)
	bookingService := services.NewBookingService(db.NewBookingRepository(database), logger)

	checks := map[string]health.CheckFunc{
		"mongo": func(ctx context.Context) error { return db.Ping(ctx, client) },
	}

	// The bot is optional: without it tickets answer 503 and payments still work.
	var messenger services.Messenger
	if cfg.TelegramToken == "" {
		logger.Warn("TELEGRAM_TOKEN not set, ticket delivery disabled")
	} else if bot, err := telegram.New(cfg.TelegramToken, cfg.TelegramTimeout, logger); err != nil {
		logger.Error("Telegram bot unavailable, ticket delivery disabled", zap.Error(err))
	} else {
		messenger = bot
		checks["telegram"] = bot.Ping
		group.Go(func() error {
			bot.ListenContacts(ctx, identityService)
			return nil
		})
	}

	var publisher services.EventPublisher
	if cfg.KafkaBroker != "" {
		kp := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Warn("Error closing Kafka writer", zap.Error(err))
			}
		}()
		publisher = kp
		logger.Info("Publishing booking events", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.KafkaTopic))
	}

	paymob := services.NewPaymobClient(cfg.Paymob, &http.Client{Timeout: cfg.Paymob.Timeout}, logger)
	if !paymob.Configured() {
		logger.Warn("Paymob credentials incomplete, payment initiation disabled")
	}
	if cfg.Paymob.HMACSecret == "" {
		logger.Warn("PAYMOB_HMAC_SECRET not set, every webhook will be rejected")
	}

	dispatcher := services.NewTicketDispatcher(identityService, qr.NewEncoder(qr.DefaultSize), messenger, logger)
	var autoTickets services.TicketSender
	if cfg.AutoSendTickets {
		autoTickets = dispatcher
	}
	paymentService := services.NewPaymentService(
		paymob,
		bookingService,
		services.NewWebhookVerifier(cfg.Paymob.HMACSecret),
		autoTickets,
		db.NewCallbackRepository(database),
		publisher,
		logger,
	)

	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	ticketHandler := handlers.NewTicketHandler(dispatcher, cfg.AdminToken, logger)
	healthHandler := handlers.NewHealthHandler(health.NewService(10*time.Second, checks), logger)

	// Set up router
	router := mux.NewRouter()
	router.HandleFunc("/", handlers.Root).Methods("GET", "HEAD")
	router.HandleFunc("/api/health", healthHandler.Check).Methods("GET")

	router.HandleFunc("/payments/initiate", paymentHandler.Initiate).Methods("POST")
	router.HandleFunc("/payments/webhook", paymentHandler.Webhook).Methods("POST")

	router.HandleFunc("/tickets/send", ticketHandler.Send).Methods("POST")
	router.HandleFunc("/api/send-approval", ticketHandler.Send).Methods("POST")

	// Start server
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3*cfg.Paymob.Timeout + cfg.TelegramTimeout + 10*time.Second,
	}

	group.Go(func() error {
		logger.Info("Server running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
