package main

import (
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/ManuelReschke/SubscriptionCheckout/app/controllers"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/billing"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/cache"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/env"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/router"
)

func main() {
	app, cfg := NewApplication()
	fiberlog.Infof("Checkout server listening on %s", cfg.ListenAddr())
	err := app.Listen(cfg.ListenAddr())
	log.Fatal(err)
}

func NewApplication() (*fiber.App, config.Config) {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.IsDev() {
		fiberlog.SetLevel(fiberlog.LevelDebug)
	} else {
		fiberlog.SetLevel(fiberlog.LevelInfo)
	}

	// BILLING
	provider := billing.NewStripeProvider(billing.StripeProviderConfig{
		SecretKey: cfg.StripeSecretKey,
		Verbose:   cfg.IsDev(),
	})
	svc := billing.NewService(provider, cfg)
	if cfg.CacheEnabled() && cfg.CatalogCacheTTL > 0 {
		svc.WithCatalogCache(cache.NewCatalogCache(cache.NewClient(cfg, cache.CatalogDB)))
	}

	verifier := billing.NewWebhookVerifier(cfg.StripeWebhookSecret, cfg.WebhookTolerance)
	if !cfg.WebhookSigningEnabled() {
		fiberlog.Warn("STRIPE_WEBHOOK_SECRET is not set, webhook payloads are accepted without signature verification")
	}
	billingController := controllers.NewBillingController(svc, verifier, billing.NewWebhookDispatcher())

	// init fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: controllers.ErrorHandler,
	})

	// recovery, request ids and logging
	app.Use(
		recover.New(),
		requestid.New(requestid.Config{Generator: uuid.NewString}),
		logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}),
	)

	// SWAGGER / OPENAPI
	if basePath := findBasePath(); basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	} else {
		fiberlog.Warn("OpenAPI document not found, /docs/api/v1 is disabled")
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Config:  cfg,
		Billing: billingController,
	})

	return app, cfg
}

// findBasePath locates the project root relative to the working directory.
func findBasePath() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/checkout to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); !os.IsNotExist(err) {
			return path
		}
	}
	return ""
}
