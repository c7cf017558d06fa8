package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/velorahq/velora/app/models"
	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/entitlements"
	"github.com/velorahq/velora/internal/pkg/env"
	"github.com/velorahq/velora/internal/pkg/payments"
)

// CheckoutController creates provider checkout sessions. This is a thin
// request/response wrapper around the payments API; the webhook pipeline does
// the real work once the provider reports the outcome.
type CheckoutController struct {
	db       *gorm.DB
	payments payments.Client
}

func NewCheckoutController(db *gorm.DB, client payments.Client) *CheckoutController {
	return &CheckoutController{db: db, payments: client}
}

// HandleListPlans receives GET /api/v1/plans and lists the purchasable plans
// with their prices and entitlements.
func (cc *CheckoutController) HandleListPlans(c *fiber.Ctx) error {
	slugs := []string{"starter", "pro", "premium", "enterprise"}
	plans := make([]fiber.Map, 0, len(slugs))
	for _, slug := range slugs {
		plan, ok := billing.GetPlanConfig(slug)
		if !ok {
			continue
		}
		plans = append(plans, fiber.Map{
			"slug":         plan.Slug,
			"price_cents":  plan.PriceCents,
			"currency":     "INR",
			"entitlements": entitlements.ForTier(plan.Slug),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"plans": plans})
}

type checkoutRequest struct {
	Plan   string `json:"plan" validate:"required,oneof=starter pro premium enterprise"`
	UserID uint   `json:"user_id" validate:"required,gt=0"`
}

// HandleCreateCheckout receives POST /api/checkout.
func (cc *CheckoutController) HandleCreateCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	var user models.User
	if err := cc.db.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	plan, ok := billing.GetPlanConfig(req.Plan)
	if !ok || plan.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_plan"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	appUserID := strconv.FormatUint(uint64(user.ID), 10)
	customer, err := cc.payments.CreateCustomer(ctx, payments.CustomerInput{
		Email:    user.Email,
		Name:     user.Name,
		Metadata: map[string]string{"app_user_id": appUserID},
	})
	if err != nil {
		log.Errorf("[Checkout] Customer creation failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "checkout_failed"})
	}

	session, err := cc.payments.CreateCheckoutSession(ctx, payments.CheckoutSessionInput{
		CustomerID: customer.ID,
		ProductID:  plan.ProductID,
		Quantity:   1,
		ReturnURL:  env.GetEnv("DODO_PAYMENTS_RETURN_URL", ""),
		Metadata: map[string]string{
			"plan_slug":   plan.Slug,
			"product_id":  plan.ProductID,
			"app_user_id": appUserID,
		},
	})
	if err != nil {
		log.Errorf("[Checkout] Session creation failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "checkout_failed"})
	}

	local := models.CheckoutSession{
		UserID:            user.ID,
		ProviderSessionID: session.ID,
		PlanSlug:          plan.Slug,
		CheckoutURL:       session.URL,
		ExpiresAt:         time.Now().Add(24 * time.Hour),
	}
	if err := cc.db.Create(&local).Error; err != nil {
		log.Errorf("[Checkout] Failed to store session for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "checkout_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"checkout_url": session.URL,
		"session_id":   local.ID,
		"expires_at":   local.ExpiresAt.Format(time.RFC3339),
		"amount": fiber.Map{
			"cents":    plan.PriceCents,
			"currency": "INR",
		},
	})
}
