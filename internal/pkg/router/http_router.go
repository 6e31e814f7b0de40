package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
)

type HttpRouter struct {
	cfg config.Config
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// fiber metrics, only when a password is configured
	if h.cfg.MetricsPassword != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.cfg.MetricsUser: h.cfg.MetricsPassword,
			},
		}), monitor.New())
	}

	// pre-built checkout front-end
	app.Static("/", h.cfg.StaticDir, fiber.Static{
		Index:         "index.html",
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{cfg: deps.Config}
}
