package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskhub/internal/handler"
	"taskhub/internal/realtime"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	notificationHandler *handler.NotificationHandler,
	analyticsHandler *handler.AnalyticsHandler,
	activityHandler *handler.ActivityHandler,
	hub *realtime.Hub,
	jwtSecret string,
	db *pgxpool.Pool,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Public
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	// Protected
	auth := api.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/tasks", taskHandler.List)
		auth.POST("/tasks", taskHandler.Create)
		auth.PUT("/tasks/:id", taskHandler.Update)
		auth.DELETE("/tasks/:id", taskHandler.Delete)

		auth.GET("/notifications", notificationHandler.List)
		auth.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		auth.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		auth.PUT("/notifications/read-all", notificationHandler.MarkAllRead)

		auth.GET("/analytics/stats", analyticsHandler.Stats)
		auth.GET("/analytics/chart-data", analyticsHandler.ChartData)

		auth.GET("/activity", activityHandler.List)
	}

	// The upgrade endpoint is authenticated; room membership inside the
	// hub still comes from the client's join frame.
	r.GET("/ws", AuthMiddleware(jwtSecret), func(c *gin.Context) {
		hub.HandleWS(c.Writer, c.Request)
	})

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
