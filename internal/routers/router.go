package routers

import (
	"github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/middleware"
	"github.com/medref/revision-service/internal/routers/api_router"
	"github.com/medref/revision-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// NewRouter 创建 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	cfg := appContainer.Config()
	lg := appContainer.Logger()

	methodLimiters := limiter.NewMethodLimiter().AddBuckets(cfg.GetBucketRules()...)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.Metrics())
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(lg))
		api.Use(middleware.RecoveryWithLogger(lg))

		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		articleHandler := api_router.NewArticleHandler(appContainer)
		revisionHandler := api_router.NewRevisionHandler(appContainer)

		api.GET("/health", healthHandler.Check)
		api.GET("/version", versionHandler.ServerVersion)

		api.POST("/article", articleHandler.Create)
		api.GET("/article", articleHandler.Get)
		api.PUT("/article", articleHandler.Update)

		api.POST("/article/revision", revisionHandler.Create)
		api.GET("/article/revision", revisionHandler.Get)
		api.GET("/article/revisions", revisionHandler.List)
		api.GET("/article/revision/compare", revisionHandler.Compare)
		api.PUT("/article/revision/restore", revisionHandler.Restore)
		api.GET("/article/revision/audit", revisionHandler.Audit)
	}

	r.NoRoute(middleware.NoFound())

	return r
}
