package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/jobqueue"
	"github.com/velorahq/velora/internal/pkg/metrics/counter"
	"github.com/velorahq/velora/internal/pkg/payments"
)

// Deps carries the explicitly constructed services the routes depend on.
// Everything is passed by reference from main; no package-level state.
type Deps struct {
	DB             *gorm.DB
	BillingService *billing.Service
	Queue          *jobqueue.Queue
	Payments       payments.Client
	Counters       *counter.Counter
	WebhookSecret  string
}

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
