// Package backend wraps the remote routine backend's REST contract. The
// engine never reads backend storage directly; these four logical calls plus
// the spin confirmation are its only boundary.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"routinehub/internal/model"
	"routinehub/pkg/circuitbreaker"
	"routinehub/pkg/config"
	"routinehub/pkg/metrics"
	"routinehub/pkg/trace"
)

// ErrRecordConflict 整天记录已经被标记过（后端 409）。良性冲突，调用方不回滚。
var ErrRecordConflict = errors.New("day record already marked")

type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewClient(cfg config.BackendConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// 连续失败3次后快速失败，避免 toggle 请求堆积
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cb:         circuitbreaker.New(cbConfig),
	}
}

type listsResponse struct {
	Routines []model.RoutineList `json:"routines"`
}

// FetchLists loads the caller's routine lists (metadata only; occurrences are
// fetched per date). GET /routines
func (c *Client) FetchLists(ctx context.Context, userID int) ([]model.RoutineList, error) {
	endpoint := "/routines"
	url := c.baseURL + "/routines"

	var out listsResponse
	if err := c.doJSON(ctx, endpoint, http.MethodGet, url, userID, nil, &out); err != nil {
		return nil, err
	}
	return out.Routines, nil
}

// FetchList loads one routine list's metadata. GET /routines/{id}/meta
func (c *Client) FetchList(ctx context.Context, userID, listID int) (*model.RoutineList, error) {
	endpoint := "/routines/{id}/meta"
	url := fmt.Sprintf("%s/routines/%d/meta", c.baseURL, listID)

	var out model.RoutineList
	if err := c.doJSON(ctx, endpoint, http.MethodGet, url, userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type occurrenceResponse struct {
	Items []model.OccurrenceItem `json:"items"`
}

// FetchOccurrences loads the ordered item list with completion flags for one
// (list, date). GET /routines/{id}?date=YYYY-MM-DD
func (c *Client) FetchOccurrences(ctx context.Context, userID, listID int, date string) ([]model.OccurrenceItem, error) {
	endpoint := "/routines/{id}"
	url := fmt.Sprintf("%s/routines/%d?date=%s", c.baseURL, listID, date)

	var out occurrenceResponse
	if err := c.doJSON(ctx, endpoint, http.MethodGet, url, userID, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

type statusBody struct {
	Status bool `json:"status"`
}

// ToggleItem acknowledges an item-level toggle.
// PATCH /routines/{id}/items/{itemId} {"status": bool}
func (c *Client) ToggleItem(ctx context.Context, userID, listID, itemID int, status bool) error {
	endpoint := "/routines/{id}/items/{itemId}"
	url := fmt.Sprintf("%s/routines/%d/items/%d", c.baseURL, listID, itemID)
	return c.doJSON(ctx, endpoint, http.MethodPatch, url, userID, statusBody{Status: status}, nil)
}

type recordBody struct {
	Status bool   `json:"status"`
	Date   string `json:"date"`
}

// MarkRecord acknowledges the day-level completion record.
// PATCH /routines/{id} {"status": bool, "date": "YYYY-MM-DD"}
// A 409 means the record was already marked; that maps to ErrRecordConflict.
func (c *Client) MarkRecord(ctx context.Context, userID, listID int, date string, status bool) error {
	endpoint := "/routines/{id}/record"
	url := fmt.Sprintf("%s/routines/%d", c.baseURL, listID)
	return c.doJSON(ctx, endpoint, http.MethodPatch, url, userID, recordBody{Status: status, Date: date}, nil)
}

// FetchRoster loads the member roster with per-member day progress and the
// caller's joined flag. GET /routines/{id}/members?date=YYYY-MM-DD
func (c *Client) FetchRoster(ctx context.Context, userID, listID int, date string) (*model.Roster, error) {
	endpoint := "/routines/{id}/members"
	url := fmt.Sprintf("%s/routines/%d/members?date=%s", c.baseURL, listID, date)

	var out model.Roster
	if err := c.doJSON(ctx, endpoint, http.MethodGet, url, userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type streakResponse struct {
	StreakDays int `json:"streak_days"`
}

// FetchStreak returns the server-computed consecutive-100%-day count.
// GET /streak
func (c *Client) FetchStreak(ctx context.Context, userID int) (int, error) {
	endpoint := "/streak"
	url := c.baseURL + "/streak"

	var out streakResponse
	if err := c.doJSON(ctx, endpoint, http.MethodGet, url, userID, nil, &out); err != nil {
		return 0, err
	}
	return out.StreakDays, nil
}

type spinBody struct {
	Date       string `json:"date"`
	PrizeIndex int    `json:"prize_index"`
	PrizeValue int    `json:"prize_value"`
}

// ConfirmSpin credits the selected prize remotely. Until this returns nil the
// wheel must not report a landing. POST /routines/{id}/spin
func (c *Client) ConfirmSpin(ctx context.Context, userID, listID int, date string, prizeIndex, prizeValue int) error {
	endpoint := "/routines/{id}/spin"
	url := fmt.Sprintf("%s/routines/%d/spin", c.baseURL, listID)
	return c.doJSON(ctx, endpoint, http.MethodPost, url, userID, spinBody{
		Date:       date,
		PrizeIndex: prizeIndex,
		PrizeValue: prizeValue,
	}, nil)
}

// doJSON 发请求并解码响应，带熔断器、延迟指标和 trace 透传。
// 良性的 409 不算作熔断器失败。
func (c *Client) doJSON(ctx context.Context, endpoint, method, url string, userID int, body, out any) error {
	var benign error
	err := c.cb.Execute(func() error {
		start := time.Now()

		var reader *bytes.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return err
			}
			reader = bytes.NewReader(b)
		} else {
			reader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("X-User-ID", strconv.Itoa(userID))
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName(), traceID)
		}

		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			metrics.RecordBackendCallLatency(endpoint, "error", latency)
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusConflict:
			metrics.RecordBackendCallLatency(endpoint, "conflict", latency)
			benign = ErrRecordConflict
			return nil
		case resp.StatusCode >= 500:
			metrics.RecordBackendCallLatency(endpoint, "5xx", latency)
			return fmt.Errorf("backend 5xx: %d", resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			metrics.RecordBackendCallLatency(endpoint, strconv.Itoa(resp.StatusCode), latency)
			return fmt.Errorf("backend error: %d", resp.StatusCode)
		}

		metrics.RecordBackendCallLatency(endpoint, "success", latency)
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return err
	}
	return benign
}
