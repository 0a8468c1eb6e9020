package repository

import (
	"studysync_backend/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

func (r *FeedbackRepository) Create(fb *model.BetaFeedback) error {
	return r.DB.Create(fb).Error
}

// List userID 为空时返回全部用户的反馈（管理端）
func (r *FeedbackRepository) List(userID string, page, limit int) ([]model.BetaFeedback, int64, error) {
	query := r.DB.Model(&model.BetaFeedback{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.BetaFeedback
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}
