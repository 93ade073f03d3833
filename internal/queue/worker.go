package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// HandlePublishPostTask fires when a scheduled post comes due. The pending
// record is published in place, exactly as an immediate post would be; if
// the user cancelled the post before its due time the record is gone and
// there is nothing to do.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	post, err := q.pub.PublishPending(ctx, payload.PostID, nil)
	if err != nil {
		slog.Error("publishing scheduled post", "post_id", payload.PostID, "error", err)
		return err
	}
	if post == nil {
		slog.Info("scheduled post was cancelled before firing", "post_id", payload.PostID)
		return nil
	}

	slog.Info("scheduled post published", "post_id", post.ID, "status", post.Status)
	return nil
}
