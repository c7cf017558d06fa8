package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velorahq/velora/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookEventCompleted(id uint) error
	MarkWebhookEventFailed(id uint, errMsg string) error
	GetWebhookEventByID(id uint) (*models.WebhookEvent, error)

	UpsertPayment(p *models.Payment) error
	LinkPaymentToSubscription(paymentID, subscriptionID uint) error
	UpsertPendingSubscription(sub *models.Subscription) error
	GetSubscriptionByProviderID(providerSubID string) (*models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error
	CreateInvoice(inv *models.Invoice) error

	GetUserByID(id uint) (*models.User, error)
	UpdateUserTier(userID uint, tier string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateWebhookEventIfNotExists is the idempotency boundary at the ingestion
// edge: the unique index on provider_event_id plus INSERT ... DO NOTHING
// guarantees exactly one row per provider event even under concurrent
// redelivery. Returns created=false when the row already existed.
func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookEventCompleted(id uint) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.WebhookStatusCompleted,
		"processed_at":  &now,
		"error_message": "",
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) MarkWebhookEventFailed(id uint, errMsg string) error {
	updates := map[string]interface{}{
		"status":        models.WebhookStatusFailed,
		"error_message": errMsg,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetWebhookEventByID(id uint) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) UpsertPayment(p *models.Payment) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_payment_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"amount_cents",
			"processed_at",
			"updated_at",
		}),
	}).Create(p).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("provider_payment_id = ?", p.ProviderPaymentID).
		First(p).Error
}

func (r *gormRepository) LinkPaymentToSubscription(paymentID, subscriptionID uint) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", paymentID).
		Update("subscription_id", subscriptionID).Error
}

func (r *gormRepository) UpsertPendingSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return r.db.Where("provider_subscription_id = ?", sub.ProviderSubscriptionID).
		First(sub).Error
}

func (r *gormRepository) GetSubscriptionByProviderID(providerSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("provider_subscription_id = ?", providerSubID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) CreateInvoice(inv *models.Invoice) error {
	return r.db.Create(inv).Error
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) UpdateUserTier(userID uint, tier string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("subscription_tier", tier).Error
}
