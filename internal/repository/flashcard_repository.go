package repository

import (
	"studysync_backend/internal/model"

	"gorm.io/gorm"
)

type FlashcardRepository struct {
	DB *gorm.DB
}

func NewFlashcardRepository(db *gorm.DB) *FlashcardRepository {
	return &FlashcardRepository{DB: db}
}

// FlashcardSetRow 列表行，附带卡片数量
type FlashcardSetRow struct {
	model.FlashcardSet
	CardCount int `json:"cardCount"`
}

func (r *FlashcardRepository) List(userID string, page, limit int) ([]FlashcardSetRow, int64, error) {
	var total int64
	if err := r.DB.Model(&model.FlashcardSet{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []FlashcardSetRow
	err := r.DB.Table("flashcard_sets s").
		Select("s.*, (SELECT COUNT(*) FROM flashcards f WHERE f.set_id = s.id AND f.deleted_at IS NULL) AS card_count").
		Where("s.user_id = ? AND s.deleted_at IS NULL", userID).
		Order("s.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

func (r *FlashcardRepository) FindByID(id string) (*model.FlashcardSet, error) {
	var set model.FlashcardSet
	err := r.DB.Preload("Cards", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&set, "id = ?", id).Error
	return &set, err
}

// Create 同一事务内写入卡片集与卡片
func (r *FlashcardRepository) Create(set *model.FlashcardSet) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		cards := set.Cards
		set.Cards = nil
		if err := tx.Create(set).Error; err != nil {
			return err
		}
		for i := range cards {
			cards[i].SetID = set.ID
		}
		if len(cards) > 0 {
			if err := tx.Create(&cards).Error; err != nil {
				return err
			}
		}
		set.Cards = cards
		return nil
	})
}

func (r *FlashcardRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("set_id = ?", id).Delete(&model.Flashcard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.FlashcardSet{}, "id = ?", id).Error
	})
}

func (r *FlashcardRepository) CountByUser(userID string) (int64, error) {
	var n int64
	err := r.DB.Model(&model.FlashcardSet{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// FindAllByUser 只取知识图谱需要的列
func (r *FlashcardRepository) FindAllByUser(userID string) ([]model.FlashcardSet, error) {
	var sets []model.FlashcardSet
	err := r.DB.Select("id", "title", "upload_id", "created_at").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&sets).Error
	return sets, err
}
