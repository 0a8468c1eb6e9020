package repository

import (
	"studysync_backend/internal/model"

	"gorm.io/gorm"
)

type UploadRepository struct {
	DB *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{DB: db}
}

func (r *UploadRepository) Create(upload *model.Upload) error {
	return r.DB.Create(upload).Error
}

func (r *UploadRepository) FindByID(id string) (*model.Upload, error) {
	var upload model.Upload
	err := r.DB.First(&upload, "id = ?", id).Error
	return &upload, err
}

func (r *UploadRepository) List(userID string, page, limit int) ([]model.Upload, int64, error) {
	var total int64
	query := r.DB.Model(&model.Upload{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var uploads []model.Upload
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&uploads).Error
	return uploads, total, err
}

func (r *UploadRepository) Delete(id string) error {
	return r.DB.Delete(&model.Upload{}, "id = ?", id).Error
}

func (r *UploadRepository) CountByUser(userID string) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Upload{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *UploadRepository) FindAllByUser(userID string) ([]model.Upload, error) {
	var uploads []model.Upload
	err := r.DB.Select("id", "original_name", "created_at").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&uploads).Error
	return uploads, err
}
