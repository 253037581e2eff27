package transport

import (
	"time"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/gin-gonic/gin"
)

// InitRoutes 注册 HTTP 路由
func InitRoutes(h *StudioHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "nano-format",
		})
	})

	api := router.Group("/api")
	{
		api.GET("/state", h.GetState)
		api.PUT("/key", h.SetAPIKey)
		api.DELETE("/key", h.ClearAPIKey)
		api.PATCH("/settings", h.UpdateSettings)
		api.POST("/upload", h.UploadImage)
		api.POST("/generate", h.Generate)
		api.POST("/transform", h.Transform)
		api.POST("/enhance", h.Enhance)
		api.GET("/image", h.GetImage)
		api.GET("/image/download", h.DownloadImage)
		api.POST("/image/publish", h.PublishImage)
		api.DELETE("/error", h.DismissError)
	}
	return router
}

// requestLogger 使用全局 logrus 记录请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		common.WithFields(map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}).Info("HTTP request")
	}
}
