// Package events publishes salary-page activity to Redis pub/sub so other
// services (gateway SSE, analytics) can follow along.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"jobmate/salary-service/internal/view"
)

// Channel names.
const (
	CountrySelected = "EVENT_COUNTRY_SELECTED"
	SearchCompleted = "EVENT_SEARCH_COMPLETED"
)

// Publisher announces view events. Publishing is best-effort and never
// fails the caller.
type Publisher interface {
	CountrySelected(ctx context.Context, sessionID string, st view.State)
	SearchCompleted(ctx context.Context, sessionID string, st view.State)
}

// Nop discards every event. Used when no REDIS_URL is configured.
type Nop struct{}

func (Nop) CountrySelected(context.Context, string, view.State) {}
func (Nop) SearchCompleted(context.Context, string, view.State) {}

// RedisPublisher publishes JSON events on the channel named after the event
// type.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a publisher on rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) CountrySelected(ctx context.Context, sessionID string, st view.State) {
	p.publish(ctx, CountrySelected, CountrySelectedPayload(sessionID, st))
}

func (p *RedisPublisher) SearchCompleted(ctx context.Context, sessionID string, st view.State) {
	p.publish(ctx, SearchCompleted, SearchCompletedPayload(sessionID, st))
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, payload map[string]string) {
	event, _ := json.Marshal(payload)
	if err := p.rdb.Publish(ctx, channel, event).Err(); err != nil {
		slog.Warn("publish "+channel+" failed", "err", err)
	}
}

// CountrySelectedPayload builds the EVENT_COUNTRY_SELECTED message body.
func CountrySelectedPayload(sessionID string, st view.State) map[string]string {
	return map[string]string{
		"type":             CountrySelected,
		"sessionId":        sessionID,
		"country":          st.Country,
		"categoriesStatus": string(st.CategoriesStatus),
		"categories":       strconv.Itoa(len(st.Categories)),
	}
}

// SearchCompletedPayload builds the EVENT_SEARCH_COMPLETED message body.
// Mean and count are present only when the search itself succeeded.
func SearchCompletedPayload(sessionID string, st view.State) map[string]string {
	m := map[string]string{
		"type":          SearchCompleted,
		"sessionId":     sessionID,
		"country":       st.Country,
		"category":      st.SubmittedCategory,
		"historyStatus": string(st.HistoryStatus),
		"searchStatus":  string(st.SearchStatus),
	}
	if st.Search != nil && st.SearchStatus == view.StatusReady {
		m["mean"] = strconv.FormatFloat(st.Search.Mean, 'f', 2, 64)
		m["count"] = strconv.Itoa(st.Search.Count)
	}
	return m
}
