package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/cache"
	"github.com/velorahq/velora/internal/pkg/database"
	"github.com/velorahq/velora/internal/pkg/env"
	"github.com/velorahq/velora/internal/pkg/jobqueue"
	"github.com/velorahq/velora/internal/pkg/mail"
	"github.com/velorahq/velora/internal/pkg/metrics/counter"
	"github.com/velorahq/velora/internal/pkg/payments"
	"github.com/velorahq/velora/internal/pkg/router"
)

func main() {
	app, manager := NewApplication()

	// Stop workers cleanly on SIGINT/SIGTERM so in-flight jobs finish.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		manager.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()

	// Billing pipeline wiring: one service, one dispatcher, one queue per
	// process, all passed by reference.
	billingService := billing.NewServiceFromDB(db)
	mailer := mail.NewSMTPMailer()
	dispatcher := billing.NewDispatcher(billingService, mailer)

	counters := counter.New(cache.GetClient())

	queue := jobqueue.NewQueue(cache.GetClient(), jobqueue.DefaultWorkers)
	processor := jobqueue.NewWebhookProcessor(billingService, dispatcher, counters)
	queue.Register(jobqueue.JobTypeWebhookProcess, processor.Process)

	manager := jobqueue.NewManager(queue)
	manager.Start()

	app := fiber.New(fiber.Config{
		AppName: "velora",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app, router.Deps{
		DB:             db,
		BillingService: billingService,
		Queue:          queue,
		Payments:       payments.NewDodoClientFromEnv(),
		Counters:       counters,
		WebhookSecret:  env.GetEnv("DODO_PAYMENTS_WEBHOOK_KEY", ""),
	})

	return app, manager
}
