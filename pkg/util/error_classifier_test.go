package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func jsonSyntaxError() error {
	var v map[string]any
	return json.Unmarshal([]byte("{broken"), &v)
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantKind      string
	}{
		{"nil", nil, false, ""},
		{"json syntax", jsonSyntaxError(), false, "json_decode_error"},
		{"deadline exceeded", context.DeadlineExceeded, true, "timeout"},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"url error", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("refused")}, true, "network_error"},
		{"connection refused string", errors.New("dial tcp: connection refused"), true, "connection_error"},
		{"backend 5xx", errors.New("backend 5xx: 503"), true, "backend_5xx"},
		{"backend 4xx", errors.New("backend error: 404"), false, "unknown_error"},
		{"unknown", errors.New("something else"), false, "unknown_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transient, kind := IsTransientError(tt.err)
			assert.Equal(t, tt.wantTransient, transient)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}
