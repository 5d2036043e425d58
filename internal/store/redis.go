package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"road-monitor/internal/config"
	"road-monitor/internal/domain"
)

// Feed and state key layout. One tracking session is live at a time, so
// keys are namespaced by session id and expire shortly after updates stop.
const (
	stateTTL    = 30 * time.Second
	feedChannel = "monitor:feed"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// UpdateSessionState writes the live position/speed snapshot for the
// session and publishes it on the feed channel in one round trip.
func (r *RedisStore) UpdateSessionState(ctx context.Context, st *domain.StateUpdate) error {
	stateData := map[string]interface{}{
		"session_id": st.SessionID,
		"lat":        st.Lat,
		"lng":        st.Lon,
		"speed_kmh":  st.SpeedKmh,
		"timestamp":  st.Timestamp.Unix(),
	}
	if st.RiskScore != nil {
		stateData["risk_score"] = *st.RiskScore
	}

	pubPayload, err := json.Marshal(domain.FeedMessage{
		Type:      domain.FeedState,
		SessionID: st.SessionID,
		SentAt:    time.Now(),
		Payload:   st,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	stateKey := fmt.Sprintf("session:%s:state", st.SessionID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, stateTTL)
	pipe.GeoAdd(ctx, "monitor:positions", &redis.GeoLocation{
		Name:      st.SessionID,
		Longitude: st.Lon,
		Latitude:  st.Lat,
	})
	pipe.Publish(ctx, feedChannel, pubPayload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	return nil
}

// PublishFeed mirrors one feed message (alert channel payloads,
// dismissals, weather updates) onto the Redis feed channel.
func (r *RedisStore) PublishFeed(ctx context.Context, msg *domain.FeedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal feed message: %w", err)
	}
	return r.client.Publish(ctx, feedChannel, payload).Err()
}

// GetAPIKey resolves a dynamically issued API key to its client id.
// Empty string means unknown key.
func (r *RedisStore) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	key := fmt.Sprintf("monitor:auth:%s", apiKey)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get api key failed: %w", err)
	}
	return val, nil
}
