package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sambecker/postdeck/internal/queue"
	"github.com/sambecker/postdeck/internal/repository"
)

// ReconcileJob re-arms pending posts whose due time passed without any
// publish pass running, which happens when the task queue loses state
// between scheduling and firing. Only never-fired posts qualify: once a
// pass has recorded results, further attempts go through explicit retry,
// so an all-platforms-failed post is not re-fired on every sweep.
type ReconcileJob struct {
	pr      repository.PostRepository
	enqueue func(payload queue.PublishPostPayload, delay time.Duration) error
	now     func() time.Time
}

// Posts are left alone for a grace period after their due time so a
// normally firing task isn't raced.
const reconcileGrace = 2 * time.Minute

func NewReconcileJob(pr repository.PostRepository, client *asynq.Client) *ReconcileJob {
	return &ReconcileJob{
		pr: pr,
		enqueue: func(payload queue.PublishPostPayload, delay time.Duration) error {
			return queue.EnqueuePost(client, payload, delay)
		},
		now: time.Now,
	}
}

func (j *ReconcileJob) Sweep() {
	ctx := context.Background()

	cutoff := j.now().Add(-reconcileGrace)
	overdue, err := j.pr.GetUnfiredDueBefore(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range overdue {
		err := j.enqueue(queue.PublishPostPayload{PostID: post.ID}, 0)
		if err != nil {
			slog.Info("re-enqueue failed", "post_id", post.ID, "error", err)
			continue
		}
		slog.Info("re-enqueued overdue post", "post_id", post.ID, "scheduled_time", post.ScheduledTime)
	}
}
