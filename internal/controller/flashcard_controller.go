package controller

import (
	"studysync_backend/internal/service"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"github.com/gin-gonic/gin"
)

type FlashcardController struct {
	FlashcardService *service.FlashcardService
}

func NewFlashcardController(flashcardService *service.FlashcardService) *FlashcardController {
	return &FlashcardController{FlashcardService: flashcardService}
}

// ListSets godoc
// @Summary 卡片集列表
// @Tags 闪卡
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} api.FlashcardSetList
// @Router /flashcards/sets [get]
func (c *FlashcardController) ListSets(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, err := c.FlashcardService.List(currentUserID(ctx), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetSet godoc
// @Summary 卡片集详情
// @Tags 闪卡
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "卡片集ID"
// @Success 200 {object} api.FlashcardSet
// @Router /flashcards/sets/{id} [get]
func (c *FlashcardController) GetSet(ctx *gin.Context) {
	set, err := c.FlashcardService.Get(currentUserID(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, service.ToAPIFlashcardSet(set, len(set.Cards)))
}

// CreateSet godoc
// @Summary 创建卡片集
// @Tags 闪卡
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body api.FlashcardSetInput true "卡片集"
// @Success 201 {object} api.FlashcardSet
// @Failure 403 {object} api.UsageLimitBody "达到等级上限"
// @Router /flashcards/sets [post]
func (c *FlashcardController) CreateSet(ctx *gin.Context) {
	var req api.FlashcardSetInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	set, err := c.FlashcardService.Create(currentUserID(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, service.ToAPIFlashcardSet(set, len(set.Cards)))
}

// DeleteSet godoc
// @Summary 删除卡片集
// @Tags 闪卡
// @Security ApiKeyAuth
// @Param id path string true "卡片集ID"
// @Success 200 {object} map[string]interface{}
// @Router /flashcards/sets/{id} [delete]
func (c *FlashcardController) DeleteSet(ctx *gin.Context) {
	if err := c.FlashcardService.Delete(currentUserID(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
