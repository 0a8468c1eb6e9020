package event

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeAttemptCompleted EventType = "quiz.attempt.completed"
	EventTypeCheckoutCreated  EventType = "subscription.checkout.created"
	EventTypeFeedbackCreated  EventType = "beta.feedback.created"
	EventTypeUploadStored     EventType = "upload.stored"
)

// Envelope 所有领域事件共用的外层结构
type Envelope struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func newEnvelope(t EventType, payload any) Envelope {
	return Envelope{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

type AttemptCompleted struct {
	AttemptID string `json:"attemptId"`
	QuizID    string `json:"quizId"`
	UserID    string `json:"userId"`
	Score     int    `json:"score"`
	Passed    bool   `json:"passed"`
	TimeSpent int    `json:"timeSpent"`
}

type CheckoutCreated struct {
	SessionID     string `json:"sessionId"`
	UserID        string `json:"userId"`
	PriceID       string `json:"priceId"`
	Tier          string `json:"tier"`
	BillingPeriod string `json:"billingPeriod"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

type FeedbackCreated struct {
	FeedbackID string `json:"feedbackId"`
	UserID     string `json:"userId"`
	Category   string `json:"category"`
	Rating     int    `json:"rating"`
}

type UploadStored struct {
	UploadID    string `json:"uploadId"`
	UserID      string `json:"userId"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
