package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/database"
	"github.com/brookstone/whatsapp-bot/internal/config"
	"github.com/brookstone/whatsapp-bot/internal/handlers"
	"github.com/brookstone/whatsapp-bot/internal/jobs"
	"github.com/brookstone/whatsapp-bot/internal/logging"
	"github.com/brookstone/whatsapp-bot/internal/metrics"
	"github.com/brookstone/whatsapp-bot/internal/middleware"
	"github.com/brookstone/whatsapp-bot/internal/routes"
	"github.com/brookstone/whatsapp-bot/internal/services"
	"github.com/brookstone/whatsapp-bot/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Initialize storage
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize lead storage", zap.Error(err))
	}

	messenger := newMessenger(cfg, logger, m)

	kb, err := services.LoadKnowledgeBase(cfg.Bot.FAQDataPath)
	if err != nil {
		logger.Fatal("failed to load knowledge base", zap.String("path", cfg.Bot.FAQDataPath), zap.Error(err))
	}
	logger.Info("knowledge base loaded", zap.Int("languages", kb.Languages()))

	var generator services.Generator
	if cfg.GeminiConfigured() {
		gemini, err := services.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Endpoint)
		if err != nil {
			logger.Error("failed to initialize gemini, answers will use the configuration notice", zap.Error(err))
		} else {
			defer func() { _ = gemini.Close() }()
			generator = gemini
			logger.Info("gemini initialized", zap.String("model", cfg.Gemini.Model), zap.String("endpoint", cfg.Gemini.Endpoint))
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, free-text answers are disabled")
	}

	answers := services.NewAnswerService(generator, services.AnswerConfig{
		RetryDelay:    services.DefaultRetryDelay,
		RatePerMinute: cfg.Gemini.RatePerMinute,
		AgentPhone:    cfg.Bot.AgentPhone,
	}, logger, m)

	templates := services.NewTemplates(cfg.Bot.AgentPhone, cfg.Bot.BookingFormURL)
	sessionManager := services.NewSessionManager(cfg.Bot.SessionTTL, logger, m)

	conversation := services.NewConversationService(
		sessionManager,
		messenger,
		services.NewPromptBuilder(kb, cfg.Bot.AgentPhone),
		answers,
		store,
		templates,
		services.ConversationConfig{
			BrochureMediaID:  cfg.Bot.BrochureMediaID,
			BrochureFilename: cfg.Bot.BrochureFilename,
			GuidedBooking:    cfg.Bot.BookingFlowMode == config.BookingFlowGuided,
		},
		logger, m,
	)

	confirmations, ledger := newConfirmationJob(ctx, cfg, messenger, templates, logger, m)
	var poller handlers.ConfirmationRunner
	if confirmations != nil {
		poller = confirmations
		confirmations.Start(ctx, cfg.Bot.BookingPollInterval)
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Brookstone WhatsApp Bot v" + version,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(middleware.RequestLogger(logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	health := handlers.NewHealthHandler(version, cfg.WhatsAppConfigured(), answers.Configured(), store)
	if ledger != nil {
		health.WithLedger(ledger)
	}

	h := routes.Handlers{
		Webhook: handlers.NewWebhookHandler(conversation, messenger, cfg.WhatsApp.VerifyToken, logger, m),
		Health:  health,
		Admin:   handlers.NewAdminHandler(sessionManager, store, poller, logger),
	}
	if cfg.WhatsApp.Provider == config.ProviderTwilio {
		h.Twilio = handlers.NewTwilioHandler(conversation, messenger, logger, m)
	}
	routes.SetupRoutes(app, cfg, h, m, logger)

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("gracefully shutting down")
		if confirmations != nil {
			confirmations.Stop()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Brookstone WhatsApp Bot starting",
		zap.String("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Environment),
		zap.String("storage", store.Name()),
		zap.String("provider", cfg.WhatsApp.Provider),
		zap.Bool("whatsapp_configured", cfg.WhatsAppConfigured()),
		zap.Bool("gemini_configured", answers.Configured()),
		zap.String("booking_flow", cfg.Bot.BookingFlowMode),
		zap.Bool("confirmations", confirmations != nil),
	)

	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
	sessionManager.Close()
}

func openStore(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.Storage.UseMemoryStore || cfg.Storage.DatabaseURL == "" {
		logger.Warn("using in-memory lead storage, leads are lost on restart")
		return storage.NewMemoryStore(), nil
	}

	db, err := database.Connect(cfg.Storage.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("using PostgreSQL lead storage")
	return storage.NewDatabaseStore(db), nil
}

func newMessenger(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) services.Messenger {
	var (
		messenger services.Messenger
		err       error
	)
	switch cfg.WhatsApp.Provider {
	case config.ProviderTwilio:
		messenger, err = services.NewTwilioService(services.TwilioConfig{
			AccountSID:  cfg.Twilio.AccountSID,
			AuthToken:   cfg.Twilio.AuthToken,
			From:        cfg.Twilio.WhatsAppFrom,
			BrochureURL: cfg.Bot.BrochureURL,
		}, logger, m)
	default:
		messenger, err = services.NewWhatsAppService(services.CloudAPIConfig{
			BaseURL:       cfg.WhatsApp.APIBase,
			APIVersion:    cfg.WhatsApp.APIVersion,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			Token:         cfg.WhatsApp.Token,
		}, logger, m)
	}
	if err != nil {
		logger.Warn("WhatsApp transport not configured, replies will not be delivered",
			zap.String("provider", cfg.WhatsApp.Provider), zap.Error(err))
		return services.DisabledMessenger{}
	}
	return messenger
}

// newConfirmationJob returns nils when the site-visit spreadsheet is not configured.
func newConfirmationJob(ctx context.Context, cfg *config.Config, sender services.Messenger, templates *services.Templates, logger *zap.Logger, m *metrics.Metrics) (*jobs.BookingConfirmationJob, *services.SheetsLedger) {
	if !cfg.LedgerConfigured() {
		logger.Info("site-visit ledger not configured, booking confirmations disabled")
		return nil, nil
	}

	ledger, err := services.NewSheetsLedger(ctx, services.SheetsConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		SpreadsheetID:   cfg.Google.SpreadsheetID,
		SheetName:       cfg.Google.SheetName,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize site-visit ledger", zap.Error(err))
		return nil, nil
	}

	var visitCalendar jobs.VisitCalendar
	cal, err := services.NewCalendarService(ctx, services.CalendarConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		CalendarID:      cfg.Google.CalendarID,
		Scopes:          cfg.Google.Scopes,
	}, logger)
	if err != nil {
		logger.Warn("calendar not available, visits will be confirmed without events", zap.Error(err))
	} else {
		verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := cal.Verify(verifyCtx); err != nil {
			logger.Warn("calendar access check failed", zap.Error(err))
		}
		cancel()
		visitCalendar = cal
	}

	return jobs.NewBookingConfirmationJob(ledger, visitCalendar, sender, templates, logger, m), ledger
}
