package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierFree        Tier = "FREE"
	TierPremium     Tier = "PREMIUM"
	TierStudentPlus Tier = "STUDENT_PLUS"
	TierUniversity  Tier = "UNIVERSITY"
)

// Tiers 按展示顺序列出全部订阅等级
var Tiers = []Tier{TierFree, TierStudentPlus, TierPremium, TierUniversity}

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierStudentPlus, TierUniversity:
		return true
	}
	return false
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionTrialing SubscriptionStatus = "TRIALING"
	SubscriptionPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
)

// swagger:model Subscription
type Subscription struct {
	Base
	UserID            string             `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	Tier              Tier               `gorm:"size:20;not null;default:'FREE'" json:"tier"`
	Status            SubscriptionStatus `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	BillingPeriod     BillingPeriod      `gorm:"size:10" json:"billingPeriod,omitempty"`
	CurrentPeriodEnd  *time.Time         `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool               `gorm:"default:false" json:"cancelAtPeriodEnd"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive 只有 ACTIVE/TRIALING 的订阅享受付费等级权益
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionTrialing
}

type CheckoutStatus string

const (
	CheckoutOpen     CheckoutStatus = "open"
	CheckoutComplete CheckoutStatus = "complete"
	CheckoutExpired  CheckoutStatus = "expired"
)

// CheckoutSession 记录一次跳转到外部支付页面的结账会话
type CheckoutSession struct {
	Base
	UserID        string          `gorm:"type:varchar(36);index;not null" json:"userId"`
	PriceID       string          `gorm:"size:64;not null" json:"priceId"`
	Tier          Tier            `gorm:"size:20;not null" json:"tier"`
	BillingPeriod BillingPeriod   `gorm:"size:10;not null" json:"billingPeriod"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	URL           string          `gorm:"size:512" json:"url"`
	Status        CheckoutStatus  `gorm:"size:16;default:'open'" json:"status"`
}

func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}
