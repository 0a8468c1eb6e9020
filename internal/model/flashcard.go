package model

// swagger:model FlashcardSet
type FlashcardSet struct {
	Base
	UserID      string      `gorm:"type:varchar(36);index;not null" json:"userId"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	UploadID    *string     `gorm:"type:varchar(36);index" json:"uploadId,omitempty"`
	Cards       []Flashcard `gorm:"foreignKey:SetID" json:"cards,omitempty"`
}

func (FlashcardSet) TableName() string {
	return "flashcard_sets"
}

type Flashcard struct {
	Base
	SetID string `gorm:"type:varchar(36);index;not null" json:"setId"`
	Front string `gorm:"type:text;not null" json:"front"`
	Back  string `gorm:"type:text;not null" json:"back"`
	Order int    `gorm:"column:order_index" json:"order"`
}

func (Flashcard) TableName() string {
	return "flashcards"
}
