package repository

import (
	"studysync_backend/internal/model"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	DB *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

// FindByUserID 未订阅的用户返回 gorm.ErrRecordNotFound
func (r *SubscriptionRepository) FindByUserID(userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.DB.Where("user_id = ?", userID).First(&sub).Error
	return &sub, err
}

func (r *SubscriptionRepository) Save(sub *model.Subscription) error {
	return r.DB.Save(sub).Error
}

func (r *SubscriptionRepository) CreateCheckoutSession(session *model.CheckoutSession) error {
	return r.DB.Create(session).Error
}

func (r *SubscriptionRepository) FindCheckoutSession(id string) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	err := r.DB.First(&session, "id = ?", id).Error
	return &session, err
}
