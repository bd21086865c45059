package routers

import (
	"net/http"

	"github.com/haierkeys/block-note-service/internal/app"
	"github.com/haierkeys/block-note-service/internal/middleware"
	"github.com/haierkeys/block-note-service/internal/routers/api_router"
	"github.com/haierkeys/block-note-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/prometheus/client_golang/prometheus"
)

// newMethodLimiter 登录与注册接口限流
func newMethodLimiter(cfg *app.AppConfig) limiter.Face {
	interval := cfg.GetRateLimitInterval()
	capacity := cfg.App.RateLimitCapacity
	if capacity <= 0 {
		capacity = 10
	}
	return limiter.NewMethodLimiter().AddBuckets(
		limiter.BucketRule{
			Key:          "/api/login",
			FillInterval: interval,
			Capacity:     capacity,
			Quantum:      capacity,
		},
		limiter.BucketRule{
			Key:          "/api/register",
			FillInterval: interval,
			Capacity:     capacity,
			Quantum:      capacity,
		},
	)
}

// NewRouter 创建公开路由
// reg receives the HTTP request metrics, nil uses the prometheus default registerer
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator, reg prometheus.Registerer) *gin.Engine {
	cfg := appContainer.Config()
	lg := appContainer.Logger()
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	// 生产模式只允许配置的来源
	var origins []string
	if cfg.IsProduction() {
		origins = cfg.Cors.AllowedOrigins
	}

	r := gin.New()
	r.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
	r.Use(middleware.RecoveryWithLogger(lg))
	r.Use(middleware.AccessLog(lg))
	r.Use(middleware.NewHTTPMetrics(reg).Handler())
	r.Use(middleware.Cors(origins))
	r.Use(middleware.LangWithTranslator(uni))
	r.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))

	userHandler := api_router.NewUserHandler(appContainer)
	noteHandler := api_router.NewNoteHandler(appContainer)
	healthHandler := api_router.NewHealthHandler(appContainer)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"hello": "world"})
	})
	r.GET("/users/count", userHandler.Count)

	api := r.Group("/api")
	{
		api.Use(middleware.RateLimiter(newMethodLimiter(cfg), lg))
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))

		api.POST("/register", userHandler.Register)
		api.POST("/login", userHandler.Login)
		api.GET("/users/count", userHandler.Count)
		api.GET("/health", healthHandler.Check)

		auth := api.Group("", middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey, appContainer.UserService.Exists))
		auth.POST("/notes", noteHandler.Create)
		auth.GET("/notes", noteHandler.List)
		// GET /notes/search is served by the wildcard route, see NoteHandler.Get
		auth.GET("/notes/*path", noteHandler.Get)
		auth.PUT("/notes/*path", noteHandler.Update)
		auth.DELETE("/notes/*path", noteHandler.Delete)
	}

	r.NoRoute(middleware.NoFound())

	return r
}
