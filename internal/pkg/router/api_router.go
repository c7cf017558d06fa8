package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/velorahq/velora/app/controllers"
	"github.com/velorahq/velora/internal/pkg/middleware"
)

type ApiRouter struct {
	webhook  *controllers.WebhookController
	checkout *controllers.CheckoutController
	user     *controllers.UserController
	admin    *controllers.AdminController
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{
		webhook:  controllers.NewWebhookController(deps.BillingService, deps.Queue, deps.WebhookSecret, deps.Counters),
		checkout: controllers.NewCheckoutController(deps.DB, deps.Payments),
		user:     controllers.NewUserController(deps.DB),
		admin:    controllers.NewAdminController(deps.Queue, deps.Counters),
	}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	// The webhook receiver is exempt from rate limiting: the provider
	// controls delivery cadence and retries.
	api.Post("/webhooks/dodo", h.webhook.HandleDodoWebhook)

	api.Post("/checkout", limiter.New(), h.checkout.HandleCreateCheckout)

	v1 := api.Group("/v1", limiter.New())
	v1.Post("/register", h.user.HandleRegister)
	v1.Get("/health", h.user.HandleHealth)
	v1.Get("/plans", h.checkout.HandleListPlans)

	admin := v1.Group("/admin", middleware.AdminAPIKeyMiddleware())
	admin.Get("/queue/stats", h.admin.HandleQueueStats)
}
