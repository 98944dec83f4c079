package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"routinehub/internal/handler"
	"routinehub/pkg/mq"
)

func NewRouter(
	routineHandler *handler.RoutineHandler,
	streakHandler *handler.StreakHandler,
	logger *zap.Logger,
	rdb *redis.Client,
	publisher *mq.Publisher,
	jwtSecret string,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(500, gin.H{"status": "redis_not_ready", "error": err.Error()})
			return
		}
		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(AuthMiddleware(jwtSecret))

	api.GET("/routines", routineHandler.ListRoutines)
	api.GET("/routines/:id", routineHandler.GetRoutine)
	api.POST("/routines/:id/items/:itemId/toggle", routineHandler.ToggleItem)
	api.GET("/routines/:id/participation", routineHandler.GetParticipation)
	api.POST("/routines/:id/spin", routineHandler.Spin)
	api.POST("/streak/check", streakHandler.Check)

	return r
}
