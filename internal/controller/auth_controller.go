package controller

import (
	"studysync_backend/internal/model"
	"studysync_backend/internal/service"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

func toAPIUser(u *model.User) api.User {
	return api.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// Register godoc
// @Summary 注册新用户
// @Description 注册并直接返回登录令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body api.Credentials true "邮箱、密码、昵称"
// @Success 201 {object} api.AuthResponse "创建成功"
// @Failure 400 {object} util.ErrorResponse "请求参数错误"
// @Failure 409 {object} util.ErrorResponse "邮箱已被注册"
// @Failure 500 {object} util.ErrorResponse "服务器内部错误"
// @Router /register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req api.Credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.AuthService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, api.AuthResponse{Token: token, User: toAPIUser(user)})
}

// Login godoc
// @Summary 用户登录
// @Description 验证用户身份并返回JWT令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body api.Credentials true "用户登录凭据"
// @Success 200 {object} api.AuthResponse "登录成功"
// @Failure 400 {object} util.ErrorResponse "请求参数错误"
// @Failure 401 {object} util.ErrorResponse "邮箱或密码错误"
// @Failure 403 {object} util.ErrorResponse "账号已禁用"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req api.Credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, api.AuthResponse{Token: token, User: toAPIUser(user)})
}

// GetProfile godoc
// @Summary 获取当前用户
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} api.User
// @Failure 401 {object} util.ErrorResponse
// @Router /profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user, err := c.AuthService.Profile(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, toAPIUser(user))
}
