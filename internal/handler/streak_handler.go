package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"routinehub/internal/streak"
)

type StreakHandler struct {
	aggregator *streak.Aggregator
	logger     *zap.Logger
}

func NewStreakHandler(aggregator *streak.Aggregator, logger *zap.Logger) *StreakHandler {
	return &StreakHandler{aggregator: aggregator, logger: logger}
}

// Check POST /api/streak/check — app 回到前台时轮询 streak 里程碑
func (h *StreakHandler) Check(c *gin.Context) {
	uid := c.GetInt("user_id")

	result, err := h.aggregator.Check(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("Check: failed to fetch streak",
			zap.Int("user_id", uid),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch streak"})
		return
	}

	h.logger.Info("Check: success",
		zap.Int("user_id", uid),
		zap.Int("streak_days", result.StreakDays),
		zap.Bool("milestone", result.Milestone),
		zap.Bool("notify", result.Notify),
	)
	c.JSON(http.StatusOK, result)
}
