package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/repository"
	"github.com/sambecker/postdeck/internal/transfer"
)

// ScheduledTimeLayout matches the datetime-local input the composer sends.
const ScheduledTimeLayout = "2006-01-02T15:04"

type SchedulerService interface {
	Schedule(ctx context.Context, userID int64, req *transfer.ScheduleRequest) (*models.Post, time.Duration, error)
	Cancel(ctx context.Context, userID int64, postID string) error
	CancelAllPending(ctx context.Context, userID int64) (int, error)
}

type schedulerService struct {
	pr       repository.PostRepository
	notifier Notifier
	now      func() time.Time
}

func NewSchedulerService(pr repository.PostRepository, notifier Notifier) SchedulerService {
	return &schedulerService{pr: pr, notifier: notifier, now: time.Now}
}

// Schedule validates the request and persists a pending post. Delivery is
// not attempted here; the returned delay is how far in the future the post
// is due, for whoever arms the firing.
func (s *schedulerService) Schedule(ctx context.Context, userID int64, req *transfer.ScheduleRequest) (*models.Post, time.Duration, error) {
	if req == nil {
		return nil, 0, &ValidationError{Field: "post", Reason: "schedule request is nil"}
	}
	if err := validateComposition(req.Content, req.Platforms); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	scheduledTime, err := time.Parse(ScheduledTimeLayout, req.ScheduledTime)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, &ValidationError{Field: "scheduled_time", Reason: "invalid time format"}
	}

	now := s.now()
	if !scheduledTime.After(now) {
		return nil, 0, &ValidationError{Field: "scheduled_time", Reason: "must be in the future"}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, 0, err
	}

	post := &models.Post{
		ID:              id,
		UserID:          userID,
		Content:         req.Content,
		Platforms:       req.Platforms,
		Image:           req.Image,
		ScheduledTime:   scheduledTime,
		Status:          models.PostStatusPending,
		PlatformPostIDs: map[string]string{},
		PostResults:     map[string]models.PostResult{},
		CreatedAt:       now,
	}

	if err := s.pr.Upsert(ctx, post); err != nil {
		return nil, 0, fmt.Errorf("error saving scheduled post: %w", err)
	}

	s.notifier.Emit(ctx, userID, models.SeverityInfo,
		fmt.Sprintf("Post scheduled for %s", scheduledTime.Format("Jan 2, 2006 at 3:04 PM")))

	return post, scheduledTime.Sub(now), nil
}

// Cancel hard-deletes a single pending post. A cancelled schedule has no
// further lifecycle, so there is no status transition to make.
func (s *schedulerService) Cancel(ctx context.Context, userID int64, postID string) error {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return &ValidationError{Field: "post", Reason: "post doesn't exist"}
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return &ValidationError{Field: "post", Reason: "post doesn't exist"}
	}
	if post.Status != models.PostStatusPending {
		return &ValidationError{Field: "post", Reason: "only pending posts can be cancelled"}
	}

	return s.pr.Remove(ctx, postID)
}

// CancelAllPending bulk-cancels every pending post the user has and
// reports how many were removed.
func (s *schedulerService) CancelAllPending(ctx context.Context, userID int64) (int, error) {
	pending, err := s.pr.GetPendingByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, post := range pending {
		if err := s.pr.Remove(ctx, post.ID); err != nil {
			slog.Info(err.Error())
			continue
		}
		removed++
	}

	if removed > 0 {
		s.notifier.Emit(ctx, userID, models.SeverityInfo,
			fmt.Sprintf("Cancelled %d scheduled post(s)", removed))
	}
	return removed, nil
}
