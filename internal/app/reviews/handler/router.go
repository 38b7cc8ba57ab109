package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rowanberries/pkg/logger"
	"rowanberries/pkg/metrics"
)

func SetupRoutes(reviewHandler *ReviewHandler, authHandler *AuthHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("reviews-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "reviews-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/signup", authHandler.SignUp)
		auth.POST("/login", authHandler.Login)
		auth.GET("/username/available", authHandler.CheckUsername)
	}

	posts := router.Group("/posts")
	{
		// Публичные чтения, персонализируются при наличии токена
		posts.GET("/", reviewHandler.ListPosts)
		posts.GET("/:post_id", reviewHandler.GetPost)
		posts.GET("/:post_id/rating", reviewHandler.GetRatingSummary)
		posts.GET("/:post_id/comments", authMiddleware.OptionalAuthenticate(), reviewHandler.ListComments)

		// Мутации требуют аутентификации
		posts.POST("/", authMiddleware.Authenticate(), reviewHandler.PublishPost)
		posts.DELETE("/:post_id", authMiddleware.Authenticate(), reviewHandler.DeletePost)
		posts.POST("/:post_id/rating", authMiddleware.Authenticate(), reviewHandler.SubmitRating)
		posts.POST("/:post_id/comments", authMiddleware.Authenticate(), reviewHandler.AddComment)
	}

	comments := router.Group("/comments")
	comments.Use(authMiddleware.Authenticate())
	{
		comments.POST("/:comment_id/like", reviewHandler.ToggleLike)
	}

	return router
}
