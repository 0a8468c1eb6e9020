package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studysync_backend/internal/config"
	"studysync_backend/internal/controller"
	"studysync_backend/internal/event"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/service"
	"studysync_backend/pkg/configwatcher"
	"studysync_backend/pkg/database"
	"studysync_backend/pkg/logger"
	"studysync_backend/pkg/monitoring"
	"studysync_backend/pkg/security"
	"studysync_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	publisher       *event.EventPublisher
	tracer          *sdktrace.TracerProvider
	rateLimiter     *security.RateLimiter
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	subscription *repository.SubscriptionRepository
	quiz         *repository.QuizRepository
	flashcard    *repository.FlashcardRepository
	upload       *repository.UploadRepository
	feedback     *repository.FeedbackRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	usage        *service.UsageService
	subscription *service.SubscriptionService
	quiz         *service.QuizService
	flashcard    *service.FlashcardService
	upload       *service.UploadService
	graph        *service.KnowledgeGraphService
	feedback     *service.FeedbackService
}

type controllers struct {
	auth         *controller.AuthController
	quiz         *controller.QuizController
	flashcard    *controller.FlashcardController
	upload       *controller.UploadController
	graph        *controller.KnowledgeGraphController
	subscription *controller.SubscriptionController
	feedback     *controller.FeedbackController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		subscription: repository.NewSubscriptionRepository(db),
		quiz:         repository.NewQuizRepository(db),
		flashcard:    repository.NewFlashcardRepository(db),
		upload:       repository.NewUploadRepository(db),
		feedback:     repository.NewFeedbackRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client, publisher event.Publisher) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.usage = service.NewUsageService(&service.RepositoryCounter{
		Quizzes:    repos.quiz,
		Flashcards: repos.flashcard,
		Uploads:    repos.upload,
	}, repos.subscription, cfg.Usage)
	s.auth = service.NewAuthService(repos.user, s.usage, cfg)
	s.subscription = service.NewSubscriptionService(repos.subscription, s.usage, cfg.Billing, publisher)
	s.quiz = service.NewQuizService(repos.quiz, database.NewLocker(rdb, "studysync:lock:"), publisher)
	s.flashcard = service.NewFlashcardService(repos.flashcard)
	s.upload = service.NewUploadService(repos.upload, s.storage, s.usage, cfg.Upload, publisher)
	s.graph = service.NewKnowledgeGraphService(repos.upload, repos.flashcard, repos.quiz)
	s.feedback = service.NewFeedbackService(repos.feedback, publisher)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		quiz:         controller.NewQuizController(s.quiz),
		flashcard:    controller.NewFlashcardController(s.flashcard),
		upload:       controller.NewUploadController(s.upload),
		graph:        controller.NewKnowledgeGraphController(s.graph),
		subscription: controller.NewSubscriptionController(s.subscription),
		feedback:     controller.NewFeedbackController(s.feedback),
		health:       controller.NewHealthController(db, rdb),
	}
}

func rateWindow(cfg *config.Config) time.Duration {
	if cfg.RateLimit.WindowMinutes <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.rateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, rateWindow(cfg))
	router.Use(a.rateLimiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerReloaders 配置热更新时调整限流速率和订阅等级上限
func (a *App) registerReloaders() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.rateLimiter.Update(cfg.RateLimit.MaxRequests, rateWindow(cfg))
	})
	a.RegisterConfigCallback(a.services.usage.Reload)
}

func (a *App) reload(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 只有作答提交锁依赖 Redis，不可用时退化为数据库条件更新
		logger.Log.Error("Failed to initialize redis, submit lock disabled", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	publisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Log.Error("Failed to connect to rabbitmq, events disabled", zap.Error(err))
		publisher, _ = event.NewEventPublisher("", cfg.RabbitMQ.Exchange)
	}
	app.publisher = publisher

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb, publisher)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.registerReloaders()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := configwatcher.Watch(watchCtx, a.ConfigDir, a.reload); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Log.Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
