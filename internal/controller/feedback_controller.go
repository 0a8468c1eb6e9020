package controller

import (
	"studysync_backend/internal/service"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"github.com/gin-gonic/gin"
)

type FeedbackController struct {
	FeedbackService *service.FeedbackService
}

func NewFeedbackController(feedbackService *service.FeedbackService) *FeedbackController {
	return &FeedbackController{FeedbackService: feedbackService}
}

// SubmitFeedback godoc
// @Summary 提交内测反馈
// @Tags 内测
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body api.FeedbackInput true "反馈"
// @Success 201 {object} api.Feedback
// @Failure 400 {object} util.ErrorResponse
// @Router /beta/feedback [post]
func (c *FeedbackController) SubmitFeedback(ctx *gin.Context) {
	var req api.FeedbackInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	fb, err := c.FeedbackService.Create(ctx.Request.Context(), currentUserID(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, fb)
}

// ListMyFeedback godoc
// @Summary 我的反馈
// @Tags 内测
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} api.FeedbackList
// @Router /beta/feedback [get]
func (c *FeedbackController) ListMyFeedback(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, err := c.FeedbackService.List(currentUserID(ctx), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// ListAllFeedback godoc
// @Summary 全部反馈（管理员）
// @Tags 内测
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} api.FeedbackList
// @Failure 403 {object} util.ErrorResponse
// @Router /admin/beta/feedback [get]
func (c *FeedbackController) ListAllFeedback(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, err := c.FeedbackService.List("", page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
