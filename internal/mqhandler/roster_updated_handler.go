package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "routinehub/contracts/mq"
	"routinehub/internal/roster"
)

// RosterUpdatedHandler drops the cached member view when the backend reports
// a membership change (join, leave, group deleted).
type RosterUpdatedHandler struct {
	cache  *roster.Cache
	logger *zap.Logger
}

func NewRosterUpdatedHandler(cache *roster.Cache, logger *zap.Logger) *RosterUpdatedHandler {
	return &RosterUpdatedHandler{cache: cache, logger: logger}
}

func (h *RosterUpdatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.RosterUpdatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal RosterUpdatedPayload", zap.Error(err))
		return err
	}

	h.logger.Info("Handling routine.roster_updated event",
		zap.Int("list_id", p.ListID),
	)

	if p.ListID <= 0 {
		h.logger.Error("Invalid list_id in roster_updated event", zap.Int("list_id", p.ListID))
		return fmt.Errorf("invalid list_id: %d", p.ListID)
	}

	return h.cache.Invalidate(ctx, p.ListID)
}
