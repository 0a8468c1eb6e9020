package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"studysync_backend/internal/config"
	"studysync_backend/internal/event"
	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"
	"studysync_backend/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Plan 价格目录中的一项
type Plan struct {
	PriceID       string
	Tier          model.Tier
	BillingPeriod model.BillingPeriod
	Amount        decimal.Decimal
}

var monthlyPrices = map[model.Tier]decimal.Decimal{
	model.TierStudentPlus: decimal.RequireFromString("4.99"),
	model.TierPremium:     decimal.RequireFromString("9.99"),
	model.TierUniversity:  decimal.RequireFromString("29.99"),
}

// yearlyMultiplier 年付按 10 个月计价
var yearlyMultiplier = decimal.NewFromInt(10)

// Catalog 生成全部付费套餐，priceId 形如 price_premium_monthly
func Catalog() []Plan {
	var plans []Plan
	for _, tier := range model.Tiers {
		monthly, ok := monthlyPrices[tier]
		if !ok {
			continue
		}
		plans = append(plans,
			Plan{PriceID: priceID(tier, model.BillingMonthly), Tier: tier, BillingPeriod: model.BillingMonthly, Amount: monthly},
			Plan{PriceID: priceID(tier, model.BillingYearly), Tier: tier, BillingPeriod: model.BillingYearly, Amount: monthly.Mul(yearlyMultiplier)},
		)
	}
	return plans
}

func priceID(tier model.Tier, period model.BillingPeriod) string {
	return "price_" + strings.ToLower(string(tier)) + "_" + string(period)
}

func findPlan(id string, period model.BillingPeriod) (Plan, bool) {
	for _, p := range Catalog() {
		if p.PriceID == id && p.BillingPeriod == period {
			return p, true
		}
	}
	return Plan{}, false
}

type SubscriptionService struct {
	SubRepo   *repository.SubscriptionRepository
	Usage     *UsageService
	Billing   config.BillingConfig
	Publisher event.Publisher
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository, usage *UsageService, billing config.BillingConfig, publisher event.Publisher) *SubscriptionService {
	return &SubscriptionService{SubRepo: subRepo, Usage: usage, Billing: billing, Publisher: publisher}
}

// Current 未订阅的用户返回 FREE/ACTIVE
func (s *SubscriptionService) Current(userID string) (*api.Subscription, error) {
	sub, err := s.SubRepo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &api.Subscription{Tier: api.TierFree, Status: string(model.SubscriptionActive)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &api.Subscription{
		Tier:              api.Tier(sub.Tier),
		Status:            string(sub.Status),
		BillingPeriod:     string(sub.BillingPeriod),
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}, nil
}

func (s *SubscriptionService) UsageFor(userID string) (*api.Usage, error) {
	return s.Usage.Usage(userID)
}

func (s *SubscriptionService) Plans() []api.Plan {
	catalog := Catalog()
	out := make([]api.Plan, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, api.Plan{
			PriceID:       p.PriceID,
			Tier:          api.Tier(p.Tier),
			BillingPeriod: string(p.BillingPeriod),
			Amount:        p.Amount.StringFixed(2),
			Currency:      s.Billing.Currency,
		})
	}
	return out
}

// Checkout 记录结账会话并返回外部支付页面地址，支付结果不在本服务处理
func (s *SubscriptionService) Checkout(ctx context.Context, userID string, req api.CheckoutRequest) (*api.CheckoutResponse, error) {
	period := model.BillingPeriod(req.BillingPeriod)
	if period != model.BillingMonthly && period != model.BillingYearly {
		return nil, util.ErrInvalidBillingPeriod
	}
	plan, ok := findPlan(req.PriceID, period)
	if !ok {
		return nil, util.ErrUnknownPrice
	}

	session := &model.CheckoutSession{
		UserID:        userID,
		PriceID:       plan.PriceID,
		Tier:          plan.Tier,
		BillingPeriod: plan.BillingPeriod,
		Amount:        plan.Amount,
		Currency:      s.Billing.Currency,
		Status:        model.CheckoutOpen,
	}
	session.ID = model.NewID()
	session.URL = s.checkoutURL(session.ID)

	if err := s.SubRepo.CreateCheckoutSession(session); err != nil {
		return nil, err
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishCheckoutCreated(ctx, event.CheckoutCreated{
			SessionID:     session.ID,
			UserID:        userID,
			PriceID:       plan.PriceID,
			Tier:          string(plan.Tier),
			BillingPeriod: string(plan.BillingPeriod),
			Amount:        plan.Amount.StringFixed(2),
			Currency:      session.Currency,
		}); err != nil {
			logger.Log.Warn("failed to publish checkout created", zap.String("sessionId", session.ID), zap.Error(err))
		}
	}
	return &api.CheckoutResponse{URL: session.URL}, nil
}

func (s *SubscriptionService) checkoutURL(sessionID string) string {
	base := s.Billing.CheckoutBaseURL
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return "/checkout?session_id=" + url.QueryEscape(sessionID)
	}
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}
