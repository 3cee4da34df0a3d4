package repository

import (
	"context"
	"encoding/json"

	"github.com/GoPolymarket/premarket/internal/model"
)

// RedisNotificationRepo keeps the newest notifications in a capped list.
type RedisNotificationRepo struct {
	client  *RedisClient
	listKey string
	listMax int
}

func NewRedisNotificationRepo(client *RedisClient, listKey string, listMax int) *RedisNotificationRepo {
	if listKey == "" {
		listKey = "premarket:notifications"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisNotificationRepo{
		client:  client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (r *RedisNotificationRepo) Insert(ctx context.Context, n *model.Notification) error {
	if n == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	pipe := r.client.Client.TxPipeline()
	pipe.LPush(ctx, r.listKey, payload)
	pipe.LTrim(ctx, r.listKey, 0, int64(r.listMax-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisNotificationRepo) List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	fetch := limit * 5
	if fetch < 100 {
		fetch = 100
	}
	if fetch > r.listMax {
		fetch = r.listMax
	}
	items, err := r.client.Client.LRange(ctx, r.listKey, 0, int64(fetch-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Notification, 0, limit)
	for _, raw := range items {
		var n model.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		if !filter.Match(&n) {
			continue
		}
		out = append(out, &n)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
