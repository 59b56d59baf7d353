package bootstrap

import (
	"context"
	"encoding/json"
	"log"

	"textbehind-be/internal/billing"
	"textbehind-be/internal/config"
	"textbehind-be/internal/controller"
	"textbehind-be/internal/identity"
	"textbehind-be/internal/pkg/logger"
	"textbehind-be/internal/pkg/mailer"
	"textbehind-be/internal/pkg/serverutils"
	"textbehind-be/internal/repository/unitofwork"
	"textbehind-be/internal/service"
	"textbehind-be/pkg/tasks"

	pktNats "textbehind-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	UsageController   controller.IUsageController
	BillingController controller.IBillingController
	WebhookController controller.IWebhookController

	// Session auth for protected routes
	AuthMiddleware fiber.Handler
	// Origin/header sanity for spending routes
	OriginGuard fiber.Handler

	// Held for graceful shutdown
	Dispatcher    *tasks.Dispatcher
	NatsPublisher *pktNats.Publisher
	Logger        logger.ILogger
}

// NewContainer wires the whole object graph. A nil db selects the in-memory
// record store (mock mode), everything else stays identical.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database configured, running with in-memory record store")
		uowFactory = unitofwork.NewMemoryRepositoryFactory()
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	webhookLogger := logger.NewIsolatedLogger("logs/webhooks.log")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.PublicAppURL,
	)

	// 2. Infrastructure
	dispatcher := tasks.NewDispatcher()

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 3. Provider Adapters
	identityProvider, err := identity.NewHttpProvider(cfg.Identity)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize identity provider: %v", err)
	}
	billingProvider := billing.NewStripeProvider(cfg.Billing.SecretKey, cfg.Billing.WebhookSecret)
	planCatalog := billing.NewPlanCatalog(cfg.Billing)

	// 4. Services
	accountService := service.NewAccountService(uowFactory, identityProvider, sysLogger)
	subscriptionService := service.NewSubscriptionService(
		uowFactory,
		billingProvider,
		planCatalog,
		accountService,
		cfg,
		rdb,
		natsPub,
		dispatcher,
		sysLogger,
	)
	usageService := service.NewUsageService(uowFactory, accountService, cfg.Usage, natsPub, sysLogger)

	// 5. Task Workers
	startWorkers(dispatcher, accountService, emailService, sysLogger)

	return &Container{
		UsageController:   controller.NewUsageController(usageService),
		BillingController: controller.NewBillingController(subscriptionService),
		WebhookController: controller.NewWebhookController(
			billingProvider,
			identityProvider,
			subscriptionService,
			dispatcher,
			webhookLogger,
		),
		AuthMiddleware: serverutils.SessionMiddleware(cfg.Identity.JWTSecret),
		OriginGuard:    serverutils.OriginGuardMiddleware(cfg.App.CorsAllowedOrigins),
		Dispatcher:     dispatcher,
		NatsPublisher:  natsPub,
		Logger:         sysLogger,
	}
}

func startWorkers(
	dispatcher *tasks.Dispatcher,
	accountService service.IAccountService,
	emailService mailer.IEmailService,
	sysLogger logger.ILogger,
) {
	ctx := context.Background()

	err := dispatcher.Subscribe(ctx, tasks.TopicProfileSync, func(ctx context.Context, payload []byte) {
		var evt identity.UserEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			sysLogger.Error("tasks", "Bad profile sync payload", map[string]interface{}{"error": err.Error()})
			return
		}
		if err := accountService.HandleIdentityEvent(ctx, &evt); err != nil {
			sysLogger.Error("tasks", "Profile sync failed", map[string]interface{}{
				"external_id": evt.Identity.ExternalId,
				"error":       err.Error(),
			})
		}
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to subscribe profile sync worker: %v", err)
	}

	err = dispatcher.Subscribe(ctx, tasks.TopicSubscriptionEmail, func(ctx context.Context, payload []byte) {
		var task tasks.SubscriptionEmailTask
		if err := json.Unmarshal(payload, &task); err != nil {
			sysLogger.Error("tasks", "Bad email task payload", map[string]interface{}{"error": err.Error()})
			return
		}
		switch task.Kind {
		case tasks.EmailActivated:
			_ = emailService.SendSubscriptionActivated(task.Email, task.PlanName, task.PeriodEnd)
		case tasks.EmailCanceled:
			_ = emailService.SendSubscriptionCanceled(task.Email)
		}
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to subscribe email worker: %v", err)
	}
}
