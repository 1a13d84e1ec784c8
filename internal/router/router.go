package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/greendental/backend/config"
	"github.com/greendental/backend/internal/handler"
	"github.com/greendental/backend/internal/middleware"
	"k8s.io/klog/v2"
)

func Setup(
	cfg *config.Config,
	flowHandler *handler.FlowHandler,
	apiKeyHandler *handler.APIKeyHandler,
	usageHandler *handler.UsageHandler,
	clinicHandler *handler.ClinicHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.AdminTokenHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	// 生成的预览图以 data URI 返回，体积较大
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// AI 工具
		flowHandler.RegisterRoutes(api)
		clinicHandler.RegisterRoutes(api)

		// 用量
		usageHandler.RegisterRoutes(api)

		// 模型池管理，未配置 token 时不开放
		if cfg.Server.AdminToken != "" {
			admin := api.Group("", middleware.AdminAuthMiddleware(cfg.Server.AdminToken))
			apiKeyHandler.RegisterRoutes(admin)
		} else {
			klog.Warningf("[Router] 未配置 server.admin_token，/api/api-keys 管理接口未注册")
		}
	}

	return r
}
