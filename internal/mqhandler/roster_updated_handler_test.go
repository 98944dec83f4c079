package mqhandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"routinehub/internal/roster"
)

func newHandler() *RosterUpdatedHandler {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := roster.NewCache(rdb, nil, time.Minute, zap.NewNop())
	return NewRosterUpdatedHandler(cache, zap.NewNop())
}

func TestHandle_MalformedPayload(t *testing.T) {
	h := newHandler()
	err := h.Handle(context.Background(), json.RawMessage(`{broken`))
	assert.Error(t, err, "bad payload is rejected for requeue")
}

func TestHandle_InvalidListID(t *testing.T) {
	h := newHandler()

	err := h.Handle(context.Background(), json.RawMessage(`{"list_id":0}`))
	assert.Error(t, err)

	err = h.Handle(context.Background(), json.RawMessage(`{"list_id":-3}`))
	assert.Error(t, err)
}
