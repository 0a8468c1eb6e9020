// Package api holds the JSON contract shared by the StudySync server and its
// Go client.
package api

import "time"

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	Essay          QuestionType = "ESSAY"
)

type Tier string

const (
	TierFree        Tier = "FREE"
	TierPremium     Tier = "PREMIUM"
	TierStudentPlus Tier = "STUDENT_PLUS"
	TierUniversity  Tier = "UNIVERSITY"
)

type Resource string

const (
	ResourceFlashcardSets Resource = "flashcardSets"
	ResourceQuizzes       Resource = "quizzes"
	ResourceUploads       Resource = "uploads"
)

// Resources lists every gated resource kind.
var Resources = []Resource{ResourceFlashcardSets, ResourceQuizzes, ResourceUploads}

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// UsageLimitBody is returned with 403 when a tier ceiling is reached.
type UsageLimitBody struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	Resource   Resource `json:"resource"`
	Current    int64    `json:"current"`
	Limit      int64    `json:"limit"`
	Tier       Tier     `json:"tier"`
	UpgradeURL string   `json:"upgradeUrl"`
}

const UsageLimitCode = "USAGE_LIMIT_EXCEEDED"

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Question as seen by a student: no correct answer, no explanation.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Options  []string     `json:"options,omitempty"`
	Points   int          `json:"points"`
	Order    int          `json:"order"`
}

type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	TimeLimit     *int       `json:"timeLimit"`
	PassingScore  int        `json:"passingScore"`
	Questions     []Question `json:"questions,omitempty"`
	QuestionCount int        `json:"questionCount"`
	Difficulty    string     `json:"difficulty,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type QuizList struct {
	Quizzes    []Quiz     `json:"quizzes"`
	Pagination Pagination `json:"pagination"`
}

// QuestionInput ID 指向已有题目时原地更新，省略则新建
type QuestionInput struct {
	ID            string       `json:"id,omitempty"`
	Type          QuestionType `json:"type" binding:"required" validate:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE SHORT_ANSWER ESSAY"`
	Question      string       `json:"question" binding:"required" validate:"required"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
	Explanation   string       `json:"explanation,omitempty"`
	Points        int          `json:"points" validate:"gte=0"`
	Order         int          `json:"order"`
}

type QuizInput struct {
	Title          string          `json:"title" binding:"required" validate:"required,max=200"`
	Description    string          `json:"description"`
	TimeLimit      *int            `json:"timeLimit" validate:"omitempty,gte=1"`
	PassingScore   *int            `json:"passingScore" validate:"omitempty,gte=0,lte=100"`
	UploadID       *string         `json:"uploadId,omitempty"`
	FlashcardSetID *string         `json:"flashcardSetId,omitempty"`
	Questions      []QuestionInput `json:"questions" validate:"dive"`
}

type Attempt struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Completed   bool       `json:"completed"`
	TimeSpent   int        `json:"timeSpent"`
	Score       int        `json:"score"`
	Passed      bool       `json:"passed"`
}

type StartAttemptResponse struct {
	Attempt Attempt `json:"attempt"`
	Quiz    Quiz    `json:"quiz"`
}

type AnswerSubmission struct {
	QuestionID string `json:"questionId" binding:"required" validate:"required"`
	UserAnswer string `json:"userAnswer"`
}

type SubmitAttemptRequest struct {
	Answers   []AnswerSubmission `json:"answers" binding:"dive" validate:"dive"`
	TimeSpent int                `json:"timeSpent" binding:"gte=0" validate:"gte=0"`
}

type AnswerResult struct {
	QuestionID    string `json:"questionId"`
	UserAnswer    string `json:"userAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	PointsEarned  int    `json:"pointsEarned"`
	NeedsReview   bool   `json:"needsReview,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

type ResultSummary struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

type AttemptResult struct {
	AttemptID string         `json:"attemptId"`
	Score     int            `json:"score"`
	Passed    bool           `json:"passed"`
	TimeSpent int            `json:"timeSpent"`
	Answers   []AnswerResult `json:"answers"`
	Summary   ResultSummary  `json:"summary"`
}

type SubmitAttemptResponse struct {
	Result AttemptResult `json:"result"`
}

type Flashcard struct {
	ID    string `json:"id,omitempty"`
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
	Order int    `json:"order"`
}

type FlashcardSet struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	UploadID    *string     `json:"uploadId,omitempty"`
	CardCount   int         `json:"cardCount"`
	Cards       []Flashcard `json:"cards,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type FlashcardSetList struct {
	Sets       []FlashcardSet `json:"sets"`
	Pagination Pagination     `json:"pagination"`
}

type FlashcardSetInput struct {
	Title       string      `json:"title" binding:"required" validate:"required,max=200"`
	Description string      `json:"description"`
	UploadID    *string     `json:"uploadId,omitempty"`
	Cards       []Flashcard `json:"cards" validate:"dive"`
}

type Upload struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UploadList struct {
	Uploads    []Upload   `json:"uploads"`
	Pagination Pagination `json:"pagination"`
}

type UploadError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type BatchUploadResponse struct {
	Uploads []Upload      `json:"uploads"`
	Errors  []UploadError `json:"errors"`
}

type GraphNode struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type Subscription struct {
	Tier              Tier       `json:"tier"`
	Status            string     `json:"status"`
	BillingPeriod     string     `json:"billingPeriod,omitempty"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

// ResourceUsage carries a nil Limit for unlimited resources.
type ResourceUsage struct {
	Used  int64  `json:"used"`
	Limit *int64 `json:"limit"`
}

type Usage struct {
	Tier      Tier                       `json:"tier"`
	Resources map[Resource]ResourceUsage `json:"resources"`
}

type Plan struct {
	PriceID       string `json:"priceId"`
	Tier          Tier   `json:"tier"`
	BillingPeriod string `json:"billingPeriod"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

type CheckoutRequest struct {
	PriceID       string `json:"priceId" binding:"required" validate:"required"`
	BillingPeriod string `json:"billingPeriod" binding:"required,oneof=monthly yearly" validate:"required,oneof=monthly yearly"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type FeedbackInput struct {
	Category string `json:"category" binding:"required,oneof=bug feature ux content other" validate:"required,oneof=bug feature ux content other"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5" validate:"required,min=1,max=5"`
	Message  string `json:"message" binding:"required,max=5000" validate:"required,max=5000"`
	Page     string `json:"page,omitempty"`
}

type Feedback struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Category  string    `json:"category"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	Page      string    `json:"page,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type FeedbackList struct {
	Feedback   []Feedback `json:"feedback"`
	Pagination Pagination `json:"pagination"`
}

type Credentials struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8"`
	Name     string `json:"name,omitempty"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
