package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xiebiao/mall/docs"
	"github.com/xiebiao/mall/internal/infrastructure/config"
	"github.com/xiebiao/mall/internal/interface/http/handler"
	"github.com/xiebiao/mall/internal/interface/http/middleware"
	"github.com/xiebiao/mall/pkg/response"
)

// newRouter 创建Gin引擎并注册路由
func newRouter(
	cfg *config.Config,
	log *zap.Logger,
	userHandler *handler.UserHandler,
	imageSearchHandler *handler.ImageSearchHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing())
	}
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})

	// 生产环境不暴露Swagger
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.POST("/logout", authMiddleware.RequireAuth(), userHandler.Logout)
		}

		imageSearch := v1.Group("/image-search")
		{
			// 公开接口
			imageSearch.POST("/search", imageSearchHandler.Search)

			// 图库管理需要管理员
			admin := imageSearch.Group("", authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
			admin.POST("/batch-add", imageSearchHandler.BatchAdd)
			admin.POST("/batch-delete", imageSearchHandler.BatchDelete)
			admin.GET("/status/:product_id", imageSearchHandler.Status)
			admin.GET("/indexed", imageSearchHandler.ListIndexed)
			admin.GET("/not-indexed", imageSearchHandler.ListNotIndexed)
			admin.GET("/stats", imageSearchHandler.Stats)
		}
	}

	return r
}
