package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sambecker/postdeck/internal/models"
)

// Center is the longer-lived, user-dismissible log of the same events the
// toaster shows. Events live in a capped Redis list per user.
type Center struct {
	rdb *redis.Client
	cap int64
}

const defaultCenterCap = 100

func NewCenter(rdb *redis.Client) *Center {
	return &Center{rdb: rdb, cap: defaultCenterCap}
}

func centerKey(userID int64) string {
	return fmt.Sprintf("notifications:%d", userID)
}

func (c *Center) Deliver(ctx context.Context, n models.Notification) {
	raw, err := json.Marshal(n)
	if err != nil {
		slog.Error(err.Error())
		return
	}

	key := centerKey(n.UserID)
	pipe := c.rdb.Pipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, c.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Info(err.Error())
	}
}

// List returns the user's retained events, newest first.
func (c *Center) List(ctx context.Context, userID int64) ([]models.Notification, error) {
	raws, err := c.rdb.LRange(ctx, centerKey(userID), 0, -1).Result()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	notifications := make([]models.Notification, 0, len(raws))
	for _, raw := range raws {
		var n models.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			slog.Info(err.Error())
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// Dismiss removes one event from the user's log by id.
func (c *Center) Dismiss(ctx context.Context, userID int64, notificationID string) error {
	key := centerKey(userID)
	raws, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}

	for _, raw := range raws {
		var n models.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		if n.ID == notificationID {
			return c.rdb.LRem(ctx, key, 1, raw).Err()
		}
	}
	return nil
}
