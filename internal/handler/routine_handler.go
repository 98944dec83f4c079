package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"routinehub/internal/backend"
	"routinehub/internal/group"
	"routinehub/internal/model"
	"routinehub/internal/recurrence"
	"routinehub/internal/roster"
	"routinehub/internal/roulette"
	"routinehub/internal/store"
	"routinehub/internal/syncer"
)

type RoutineHandler struct {
	api        *backend.Client
	store      *store.CompletionStore
	controller *syncer.Controller
	rosters    *roster.Cache
	spins      *roulette.Service
	logger     *zap.Logger
}

func NewRoutineHandler(
	api *backend.Client,
	st *store.CompletionStore,
	controller *syncer.Controller,
	rosters *roster.Cache,
	spins *roulette.Service,
	logger *zap.Logger,
) *RoutineHandler {
	return &RoutineHandler{
		api:        api,
		store:      st,
		controller: controller,
		rosters:    rosters,
		spins:      spins,
		logger:     logger,
	}
}

// dateParam 取 ?date=，缺省为今天（设备本地日历日）
func dateParam(c *gin.Context) (string, time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		now := time.Now()
		return recurrence.DateKey(now), now, true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return "", time.Time{}, false
	}
	return raw, day, true
}

func userID(c *gin.Context) int {
	return c.GetInt("user_id")
}

// ListRoutines GET /api/routines?date= — 首页列表：只下发当天 due 的 routine
func (h *RoutineHandler) ListRoutines(c *gin.Context) {
	uid := userID(c)
	date, day, ok := dateParam(c)
	if !ok {
		return
	}

	lists, err := h.api.FetchLists(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("ListRoutines: failed to fetch lists",
			zap.Int("user_id", uid),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch routines"})
		return
	}

	due := make([]model.RoutineList, 0, len(lists))
	for _, l := range lists {
		set, err := recurrence.ParseSet(l.Recurrence)
		if err != nil {
			h.logger.Warn("ListRoutines: skipping list with bad recurrence",
				zap.Int("list_id", l.ID),
				zap.String("recurrence", l.Recurrence),
			)
			continue
		}
		if set.IsDue(day) {
			due = append(due, l)
		}
	}

	h.logger.Info("ListRoutines: success",
		zap.Int("user_id", uid),
		zap.String("date", date),
		zap.Int("due_count", len(due)),
	)
	c.JSON(http.StatusOK, gin.H{
		"date":     date,
		"weekday":  recurrence.FromTime(day).String(),
		"routines": due,
	})
}

// GetRoutine GET /api/routines/:id?date= — 加载某天的 occurrence 视图
func (h *RoutineHandler) GetRoutine(c *gin.Context) {
	uid := userID(c)
	listID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid routine id"})
		return
	}
	date, _, ok := dateParam(c)
	if !ok {
		return
	}

	list, err := h.api.FetchList(c.Request.Context(), uid, listID)
	if err != nil {
		h.logger.Error("GetRoutine: failed to fetch list",
			zap.Int("list_id", listID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch routine"})
		return
	}

	items, err := h.controller.Load(c.Request.Context(), uid, *list, date)
	if errors.Is(err, syncer.ErrNotDue) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "routine is not due on this date"})
		return
	}
	if err != nil {
		h.logger.Error("GetRoutine: failed to load occurrence",
			zap.Int("list_id", listID),
			zap.String("date", date),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load occurrence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routine":        list,
		"date":           date,
		"items":          items,
		"progress":       h.store.Progress(listID, date),
		"fully_complete": h.store.FullyComplete(listID, date),
	})
}

// ToggleItem POST /api/routines/:id/items/:itemId/toggle?date=
// 本地立即翻转并返回，远端确认异步进行，失败时回滚。
func (h *RoutineHandler) ToggleItem(c *gin.Context) {
	uid := userID(c)
	listID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid routine id"})
		return
	}
	itemID, err := strconv.Atoi(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	date, _, ok := dateParam(c)
	if !ok {
		return
	}

	list, err := h.api.FetchList(c.Request.Context(), uid, listID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch routine"})
		return
	}

	result, err := h.controller.Toggle(c.Request.Context(), uid, *list, date, itemID)
	if errors.Is(err, store.ErrItemNotFound) {
		// occurrence 还没加载：先加载再切换一次
		if _, loadErr := h.controller.Load(c.Request.Context(), uid, *list, date); loadErr != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load occurrence"})
			return
		}
		result, err = h.controller.Toggle(c.Request.Context(), uid, *list, date, itemID)
	}
	if errors.Is(err, syncer.ErrNotDue) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "routine is not due on this date"})
		return
	}
	if errors.Is(err, store.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "routine item not found"})
		return
	}
	if err != nil {
		h.logger.Error("ToggleItem: toggle failed",
			zap.Int("list_id", listID),
			zap.Int("item_id", itemID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle item"})
		return
	}

	h.logger.Info("ToggleItem: optimistic flip applied",
		zap.Int("user_id", uid),
		zap.Int("list_id", listID),
		zap.Int("item_id", itemID),
		zap.String("date", date),
		zap.Bool("completed", result.Completed),
	)
	c.JSON(http.StatusAccepted, gin.H{
		"state":     result.State.String(),
		"completed": result.Completed,
		"progress":  result.Progress,
	})
}

// GetParticipation GET /api/routines/:id/participation?date=
func (h *RoutineHandler) GetParticipation(c *gin.Context) {
	uid := userID(c)
	listID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid routine id"})
		return
	}
	date, _, ok := dateParam(c)
	if !ok {
		return
	}

	list, err := h.api.FetchList(c.Request.Context(), uid, listID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch routine"})
		return
	}
	if list.Kind != model.KindGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participation is only available for group routines"})
		return
	}

	r, err := h.rosters.Get(c.Request.Context(), uid, listID, date)
	if err != nil {
		h.logger.Error("GetParticipation: failed to fetch roster",
			zap.Int("list_id", listID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch roster"})
		return
	}

	view := group.DeriveParticipation(*r)
	c.JSON(http.StatusOK, gin.H{
		"date":          date,
		"participation": view,
	})
}

type spinRequest struct {
	Date    string  `json:"date" binding:"required"`
	Prizes  []int   `json:"prizes" binding:"required"`
	Current float64 `json:"current"`
}

// Spin POST /api/routines/:id/spin — 群组整天完成后的转盘抽奖
func (h *RoutineHandler) Spin(c *gin.Context) {
	uid := userID(c)
	listID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid routine id"})
		return
	}

	var req spinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spin request"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	list, err := h.api.FetchList(c.Request.Context(), uid, listID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch routine"})
		return
	}

	// 判定资格需要当天的 occurrence 状态
	if _, ok := h.store.Snapshot(listID, req.Date); !ok {
		if _, loadErr := h.controller.Load(c.Request.Context(), uid, *list, req.Date); loadErr != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load occurrence"})
			return
		}
	}

	result, err := h.spins.Spin(c.Request.Context(), uid, *list, req.Date, req.Prizes, req.Current)
	switch {
	case errors.Is(err, roulette.ErrNotEligible), errors.Is(err, roulette.ErrNoPrizes):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, roulette.ErrAlreadySpun):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("Spin: failed",
			zap.Int("user_id", uid),
			zap.Int("list_id", listID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "spin was not confirmed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
