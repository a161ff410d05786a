package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-watermark/internal/http/handlers"
	"github.com/phambaophuc/image-watermark/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	jobHandler *handlers.JobHandler
	logger     *zap.Logger
}

func NewRouter(
	jobHandler *handlers.JobHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		jobHandler: jobHandler,
		logger:     logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.jobHandler.HealthCheck)
		v1.GET("/stats", r.jobHandler.Stats)

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", middleware.RequireJSON(), r.jobHandler.CreateJob)
			jobs.GET("/:id", r.jobHandler.GetJob)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image watermarking is running",
		})
	})

	return router
}
