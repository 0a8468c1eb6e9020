package model

import (
	"encoding/json"
	"time"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	Essay          QuestionType = "ESSAY"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer, Essay:
		return true
	}
	return false
}

// HasOptions 只有选择类题型携带选项
func (t QuestionType) HasOptions() bool {
	return t == MultipleChoice || t == TrueFalse
}

// swagger:model Quiz
type Quiz struct {
	Base
	UserID         string     `gorm:"type:varchar(36);index;not null" json:"userId"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	TimeLimit      *int       `json:"timeLimit"` // 分钟，空表示使用默认时长
	PassingScore   int        `gorm:"default:70" json:"passingScore"`
	UploadID       *string    `gorm:"type:varchar(36);index" json:"uploadId,omitempty"`
	FlashcardSetID *string    `gorm:"type:varchar(36);index" json:"flashcardSetId,omitempty"`
	Questions      []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Question
type Question struct {
	Base
	QuizID        string          `gorm:"type:varchar(36);index;not null" json:"quizId"`
	Type          QuestionType    `gorm:"size:20;not null" json:"type"`
	Prompt        string          `gorm:"type:text;not null" json:"question"`
	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	CorrectAnswer string          `gorm:"type:text" json:"-"`
	Explanation   string          `gorm:"type:text" json:"-"`
	Points        int             `gorm:"default:1" json:"points"`
	Order         int             `gorm:"column:order_index" json:"order"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList 解析选项 JSON，非选择题或解析失败时返回空
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// swagger:model QuizAttempt
type QuizAttempt struct {
	Base
	QuizID      string     `gorm:"type:varchar(36);index;not null" json:"quizId"`
	UserID      string     `gorm:"type:varchar(36);index;not null" json:"userId"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	TimeSpent   int        `json:"timeSpent"` // 秒
	Score       int        `json:"score"`
	Passed      bool       `gorm:"default:false" json:"passed"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// AttemptAnswer 一次作答中单题的答案与判分结果
type AttemptAnswer struct {
	Base
	AttemptID    string `gorm:"type:varchar(36);index;not null" json:"attemptId"`
	QuestionID   string `gorm:"type:varchar(36);index;not null" json:"questionId"`
	UserAnswer   string `gorm:"type:text" json:"userAnswer"`
	IsCorrect    bool   `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
	NeedsReview  bool   `gorm:"default:false" json:"needsReview"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
