package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SubscriptionCheckout/app/controllers"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/ratelimit"
)

type ApiRouter struct {
	cfg     config.Config
	billing *controllers.BillingController
}

func (a ApiRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})

	app.Get("/setup-page", a.billing.HandleSetupPage)

	// Customer creation and lookups hit the provider on every call.
	limited := ratelimit.New(a.cfg)
	app.Post("/create-customer", limited, a.billing.HandleCreateCustomer)
	app.Post("/subscription", limited, a.billing.HandleSubscription)

	// Provider webhooks (no rate limit, signature-verified in controller)
	app.Post("/webhook", a.billing.HandleStripeWebhook)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{cfg: deps.Config, billing: deps.Billing}
}
