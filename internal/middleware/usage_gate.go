package middleware

import (
	"net/http"

	"studysync_backend/internal/service"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"
	"studysync_backend/pkg/logger"
	"studysync_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UsageChecker 判断用户能否再创建一个资源
type UsageChecker interface {
	Check(userID string, resource api.Resource) (*service.LimitExceeded, error)
}

// UsageGate 挂在创建类路由上，需在 AuthMiddleware 之后。
// 达到等级上限时返回 403 并附带升级地址，不进入处理函数。
func UsageGate(usage UsageChecker, resource api.Resource, upgradeURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		exceeded, err := usage.Check(user.UserID, resource)
		if err != nil {
			util.LogInternalError(c, err)
			c.Abort()
			return
		}
		if exceeded != nil {
			monitoring.UsageGateRejections.WithLabelValues(string(exceeded.Tier), string(resource)).Inc()
			logger.Log.Info("usage limit reached",
				zap.String("userId", user.UserID),
				zap.String("tier", string(exceeded.Tier)),
				zap.String("resource", string(resource)),
				zap.Int64("current", exceeded.Current),
				zap.Int64("limit", exceeded.Limit),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, api.UsageLimitBody{
				Error:      "Usage limit exceeded",
				Code:       api.UsageLimitCode,
				Resource:   resource,
				Current:    exceeded.Current,
				Limit:      exceeded.Limit,
				Tier:       api.Tier(exceeded.Tier),
				UpgradeURL: upgradeURL,
			})
			return
		}
		c.Next()
	}
}
