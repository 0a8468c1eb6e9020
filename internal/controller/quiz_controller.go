package controller

import (
	"studysync_backend/internal/service"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// ListQuizzes godoc
// @Summary 测验列表
// @Description 分页返回当前用户的测验，附带题目数与难度
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} api.QuizList
// @Router /quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, err := c.QuizService.List(currentUserID(ctx), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetQuiz godoc
// @Summary 测验详情
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Success 200 {object} api.Quiz
// @Failure 404 {object} util.ErrorResponse
// @Router /quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quiz, err := c.QuizService.Get(currentUserID(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, service.ToAPIQuiz(quiz, len(quiz.Questions)))
}

// CreateQuiz godoc
// @Summary 创建测验
// @Description 受订阅等级的测验数量上限约束
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body api.QuizInput true "测验及题目"
// @Success 201 {object} api.Quiz
// @Failure 400 {object} util.ErrorResponse
// @Failure 403 {object} api.UsageLimitBody "达到等级上限"
// @Router /quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req api.QuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizService.Create(currentUserID(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, service.ToAPIQuiz(quiz, len(quiz.Questions)))
}

// UpdateQuiz godoc
// @Summary 更新测验
// @Description 题目整体替换
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Param body body api.QuizInput true "测验及题目"
// @Success 200 {object} api.Quiz
// @Router /quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	var req api.QuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizService.Update(currentUserID(ctx), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, service.ToAPIQuiz(quiz, len(quiz.Questions)))
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Description 同时删除题目和作答记录
// @Tags 测验
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Success 200 {object} map[string]interface{}
// @Router /quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	if err := c.QuizService.Delete(currentUserID(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// StartAttempt godoc
// @Summary 开始作答
// @Description 返回作答记录和不含答案的测验
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Success 201 {object} api.StartAttemptResponse
// @Router /quizzes/{id}/attempt [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	resp, err := c.QuizService.StartAttempt(currentUserID(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// SubmitAttempt godoc
// @Summary 提交作答
// @Description 服务端判分，每次作答只能提交一次
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Param attemptId path string true "作答ID"
// @Param body body api.SubmitAttemptRequest true "答案与用时"
// @Success 200 {object} api.SubmitAttemptResponse
// @Failure 409 {object} util.ErrorResponse "已提交"
// @Router /quizzes/{id}/attempt/{attemptId}/submit [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	var req api.SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.QuizService.SubmitAttempt(ctx.Request.Context(), currentUserID(ctx), ctx.Param("id"), ctx.Param("attemptId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, api.SubmitAttemptResponse{Result: *result})
}

// GetAttemptResult godoc
// @Summary 作答结果
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Param attemptId path string true "作答ID"
// @Success 200 {object} api.SubmitAttemptResponse
// @Router /quizzes/{id}/attempt/{attemptId} [get]
func (c *QuizController) GetAttemptResult(ctx *gin.Context) {
	result, err := c.QuizService.GetAttemptResult(currentUserID(ctx), ctx.Param("id"), ctx.Param("attemptId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, api.SubmitAttemptResponse{Result: *result})
}
