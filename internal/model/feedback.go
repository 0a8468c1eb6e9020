package model

type FeedbackCategory string

const (
	FeedbackBug     FeedbackCategory = "bug"
	FeedbackFeature FeedbackCategory = "feature"
	FeedbackUX      FeedbackCategory = "ux"
	FeedbackContent FeedbackCategory = "content"
	FeedbackOther   FeedbackCategory = "other"
)

func (c FeedbackCategory) Valid() bool {
	switch c {
	case FeedbackBug, FeedbackFeature, FeedbackUX, FeedbackContent, FeedbackOther:
		return true
	}
	return false
}

type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackResolved FeedbackStatus = "resolved"
)

// swagger:model BetaFeedback
type BetaFeedback struct {
	Base
	UserID   string           `gorm:"type:varchar(36);index;not null" json:"userId"`
	Category FeedbackCategory `gorm:"size:20;not null" json:"category"`
	Rating   int              `gorm:"not null" json:"rating"`
	Message  string           `gorm:"type:text;not null" json:"message"`
	Page     string           `gorm:"size:255" json:"page,omitempty"`
	Status   FeedbackStatus   `gorm:"size:16;default:'new'" json:"status"`
}

func (BetaFeedback) TableName() string {
	return "beta_feedback"
}
