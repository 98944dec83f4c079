package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routinehub/pkg/circuitbreaker"
	"routinehub/pkg/config"
	"routinehub/pkg/trace"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.BackendConfig{BaseURL: baseURL, TimeoutSeconds: 2})
}

func TestFetchOccurrences_DecodesAndForwardsHeaders(t *testing.T) {
	var gotUser, gotTrace, gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/routines/7", r.URL.Path)
		gotUser = r.Header.Get("X-User-ID")
		gotTrace = r.Header.Get(trace.HeaderName())
		gotDate = r.URL.Query().Get("date")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":1,"name":"물 마시기","completed":true},
			{"id":2,"name":"스트레칭","completed":false}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := trace.WithContext(context.Background(), "abc123")

	items, err := client.FetchOccurrences(ctx, 42, 7, "2026-08-24")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].ID)
	assert.True(t, items[0].Completed)
	assert.False(t, items[1].Completed)

	assert.Equal(t, "42", gotUser)
	assert.Equal(t, "abc123", gotTrace)
	assert.Equal(t, "2026-08-24", gotDate)
}

func TestToggleItem_SendsDesiredState(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/routines/7/items/3", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	require.NoError(t, client.ToggleItem(context.Background(), 42, 7, 3, true))
	assert.Equal(t, map[string]any{"status": true}, body)
}

func TestMarkRecord_ConflictIsBenign(t *testing.T) {
	conflicts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conflicts++
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	// repeated 409s must map to the sentinel and never open the breaker
	for i := 0; i < 5; i++ {
		err := client.MarkRecord(context.Background(), 42, 7, "2026-08-24", true)
		require.ErrorIs(t, err, ErrRecordConflict)
		require.NotErrorIs(t, err, circuitbreaker.ErrOpen)
	}
	assert.Equal(t, 5, conflicts, "every call still reached the backend")
}

func TestDoJSON_ServerErrorsOpenTheBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	for i := 0; i < 3; i++ {
		err := client.ToggleItem(context.Background(), 42, 7, 1, true)
		require.Error(t, err)
		require.NotErrorIs(t, err, circuitbreaker.ErrOpen)
	}

	// 第4次请求被熔断器直接拒绝
	err := client.ToggleItem(context.Background(), 42, 7, 1, true)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
}

func TestFetchStreak(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/streak", r.URL.Path)
		_, _ = w.Write([]byte(`{"streak_days":14}`))
	}))
	defer srv.Close()

	days, err := newTestClient(srv.URL).FetchStreak(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 14, days)
}

func TestFetchRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/routines/7/members", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"list_id":7,
			"joined":true,
			"members":[
				{"user_id":1,"nickname":"지수","profile_image":"https://cdn.example.com/1.png","progress":100},
				{"user_id":2,"nickname":"민호","profile_image":"https://cdn.example.com/2.png","progress":50}
			]
		}`))
	}))
	defer srv.Close()

	roster, err := newTestClient(srv.URL).FetchRoster(context.Background(), 42, 7, "2026-08-24")
	require.NoError(t, err)
	assert.True(t, roster.Joined)
	require.Len(t, roster.Members, 2)
	assert.Equal(t, 100, roster.Members[0].Progress)
}

func TestConfirmSpin_PostsPrize(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/routines/7/spin", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).ConfirmSpin(context.Background(), 42, 7, "2026-08-24", 2, 30)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"date":        "2026-08-24",
		"prize_index": float64(2),
		"prize_value": float64(30),
	}, body)
}
