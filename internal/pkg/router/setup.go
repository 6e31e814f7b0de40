package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SubscriptionCheckout/app/controllers"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
)

// Router registers one group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are built once in main and shared by all routers.
type Dependencies struct {
	Config  config.Config
	Billing *controllers.BillingController
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// API routes go first: the static handler registered by HttpRouter
	// matches every path under "/".
	setup(app, NewApiRouter(deps), NewHttpRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
