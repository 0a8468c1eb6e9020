package app

import (
	"studysync_backend/docs"
	"studysync_backend/internal/config"
	"studysync_backend/internal/middleware"
	"studysync_backend/internal/model"
	"studysync_backend/pkg/api"
	"studysync_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	registerStudentRoutes(authGroup, c, s, cfg.Billing.UpgradeURL)

	// 3. 管理员相关接口
	admin := authGroup.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	admin.GET("/beta/feedback", c.feedback.ListAllFeedback)
}

func registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/subscriptions/plans", c.subscription.GetPlans)
	}
}

func registerStudentRoutes(rg *gin.RouterGroup, c *controllers, s *services, upgradeURL string) {
	gate := func(r api.Resource) gin.HandlerFunc {
		return middleware.UsageGate(s.usage, r, upgradeURL)
	}

	rg.GET("/profile", c.auth.GetProfile)

	// 测验
	rg.GET("/quizzes", c.quiz.ListQuizzes)
	rg.POST("/quizzes", gate(api.ResourceQuizzes), c.quiz.CreateQuiz)
	rg.GET("/quizzes/:id", c.quiz.GetQuiz)
	rg.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
	rg.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
	rg.POST("/quizzes/:id/attempt", c.quiz.StartAttempt)
	rg.GET("/quizzes/:id/attempt/:attemptId", c.quiz.GetAttemptResult)
	rg.POST("/quizzes/:id/attempt/:attemptId/submit", c.quiz.SubmitAttempt)

	// 闪卡
	rg.GET("/flashcards/sets", c.flashcard.ListSets)
	rg.POST("/flashcards/sets", gate(api.ResourceFlashcardSets), c.flashcard.CreateSet)
	rg.GET("/flashcards/sets/:id", c.flashcard.GetSet)
	rg.DELETE("/flashcards/sets/:id", c.flashcard.DeleteSet)

	// 学习资料
	rg.POST("/uploads/batch", gate(api.ResourceUploads), c.upload.UploadBatch)
	rg.GET("/uploads", c.upload.ListUploads)
	rg.DELETE("/uploads/:id", c.upload.DeleteUpload)

	rg.GET("/knowledge-graph", c.graph.GetGraph)

	// 订阅
	rg.GET("/subscriptions/current", c.subscription.GetCurrent)
	rg.GET("/subscriptions/usage", c.subscription.GetUsage)
	rg.POST("/subscriptions/checkout", c.subscription.Checkout)

	// 内测反馈
	rg.POST("/beta/feedback", c.feedback.SubmitFeedback)
	rg.GET("/beta/feedback", c.feedback.ListMyFeedback)
}
