package controller

import (
	"errors"
	"net/http"

	"studysync_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 把服务层的哨兵错误映射为 HTTP 状态码，其余按 500 处理并记录日志
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrFlashcardSetNotFound),
		errors.Is(err, util.ErrUploadNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAttemptAlreadyDone),
		errors.Is(err, util.ErrSubmitInProgress),
		errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidQuestion),
		errors.Is(err, util.ErrNoFiles),
		errors.Is(err, util.ErrTooManyFiles),
		errors.Is(err, util.ErrUnknownPrice),
		errors.Is(err, util.ErrInvalidBillingPeriod):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// currentUserID 仅在 AuthMiddleware 之后调用
func currentUserID(ctx *gin.Context) string {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
