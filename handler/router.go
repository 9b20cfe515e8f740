package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires the API routes onto a gin engine.
func NewRouter(h *ApplicationHandler, logger *zap.Logger, maxMultipartMemory int64) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	if maxMultipartMemory > 0 {
		router.MaxMultipartMemory = maxMultipartMemory
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Loan Intake Verification",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		apps := api.Group("/applications/:id")
		{
			apps.GET("", h.GetApplication)
			apps.POST("/start", h.StartApplication)
			apps.POST("/reset", h.ResetApplication)
			apps.PUT("/profile", h.UpdateProfile)
			apps.POST("/profile-image", h.UploadProfileImage)
			apps.POST("/documents/:type", h.UploadDocument)
			apps.POST("/video", h.UploadVideo)
			apps.POST("/loan", h.SubmitLoanTerms)
			apps.POST("/evaluate", h.Evaluate)
		}
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
