package controller

import (
	"studysync_backend/internal/service"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	SubscriptionService *service.SubscriptionService
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{SubscriptionService: subscriptionService}
}

// GetCurrent godoc
// @Summary 当前订阅
// @Description 未订阅时返回 FREE
// @Tags 订阅
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} api.Subscription
// @Router /subscriptions/current [get]
func (c *SubscriptionController) GetCurrent(ctx *gin.Context) {
	sub, err := c.SubscriptionService.Current(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}

// GetUsage godoc
// @Summary 资源用量
// @Tags 订阅
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} api.Usage
// @Router /subscriptions/usage [get]
func (c *SubscriptionController) GetUsage(ctx *gin.Context) {
	usage, err := c.SubscriptionService.UsageFor(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, usage)
}

// GetPlans godoc
// @Summary 套餐价格
// @Tags 订阅
// @Produce json
// @Success 200 {array} api.Plan
// @Router /subscriptions/plans [get]
func (c *SubscriptionController) GetPlans(ctx *gin.Context) {
	util.Success(ctx, c.SubscriptionService.Plans())
}

// Checkout godoc
// @Summary 创建结账会话
// @Description 返回外部支付页面地址
// @Tags 订阅
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body api.CheckoutRequest true "价格与计费周期"
// @Success 200 {object} api.CheckoutResponse
// @Failure 400 {object} util.ErrorResponse
// @Router /subscriptions/checkout [post]
func (c *SubscriptionController) Checkout(ctx *gin.Context) {
	var req api.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.SubscriptionService.Checkout(ctx.Request.Context(), currentUserID(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}
