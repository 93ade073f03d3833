package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/platforms"
	"github.com/sambecker/postdeck/internal/repository"
	"github.com/sambecker/postdeck/internal/transfer"
)

// Notifier is the slice of the toast emitter the services need.
type Notifier interface {
	Emit(ctx context.Context, userID int64, severity, message string)
}

// RegistrySource yields the platform publishers bound to one user's
// connections.
type RegistrySource interface {
	ForUser(userID int64) *platforms.Registry
}

// PublishObserver sees each per-platform status transition as it happens,
// in the order platforms were listed. The status map behind these updates
// belongs to the running operation and is gone when the call returns.
type PublishObserver func(platform string, status models.PlatformStatus)

type PublisherService interface {
	PublishNow(ctx context.Context, userID int64, sub *transfer.PostSubmission, obs PublishObserver) (*models.Post, error)
	PublishPending(ctx context.Context, postID string, obs PublishObserver) (*models.Post, error)
	RetryPlatform(ctx context.Context, userID int64, postID, platform string, obs PublishObserver) (*models.Post, error)
	RetryFailed(ctx context.Context, userID int64, postID string, obs PublishObserver) (*models.Post, error)
}

type publisherService struct {
	pr       repository.PostRepository
	registry RegistrySource
	notifier Notifier
	now      func() time.Time
}

func NewPublisherService(pr repository.PostRepository, registry RegistrySource, notifier Notifier) PublisherService {
	return &publisherService{
		pr:       pr,
		registry: registry,
		notifier: notifier,
		now:      time.Now,
	}
}

// PublishNow creates the post record and runs a full sequential pass over
// its platforms.
func (s *publisherService) PublishNow(ctx context.Context, userID int64, sub *transfer.PostSubmission, obs PublishObserver) (*models.Post, error) {
	if sub == nil {
		return nil, &ValidationError{Field: "post", Reason: "submission is nil"}
	}
	if err := validateComposition(sub.Content, sub.Platforms); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		ID:              id,
		UserID:          userID,
		Content:         sub.Content,
		Platforms:       sub.Platforms,
		Image:           sub.Image,
		ScheduledTime:   now,
		Status:          models.PostStatusPending,
		PlatformPostIDs: map[string]string{},
		PostResults:     map[string]models.PostResult{},
		CreatedAt:       now,
	}

	return s.runPass(ctx, post, post.Platforms, obs)
}

// PublishPending is the due-time entry point: it re-runs a pending post's
// never-confirmed platforms and updates the same record in place. Calling
// it twice is safe; confirmed platforms are skipped.
func (s *publisherService) PublishPending(ctx context.Context, postID string, obs PublishObserver) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		// The post was cancelled between scheduling and firing.
		return nil, nil
	}
	if post.Status == models.PostStatusPosted {
		return post, nil
	}

	return s.runPass(ctx, post, post.Platforms, obs)
}

// RetryPlatform repeats a single failed platform's attempt and merges the
// outcome into the existing record.
func (s *publisherService) RetryPlatform(ctx context.Context, userID int64, postID, platform string, obs PublishObserver) (*models.Post, error) {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	result, attempted := post.PostResults[platform]
	if !attempted {
		return nil, &ValidationError{Field: "platform", Reason: fmt.Sprintf("%s was never attempted for this post", platform)}
	}
	if result.Success {
		return nil, &ValidationError{Field: "platform", Reason: fmt.Sprintf("%s already succeeded", platform)}
	}

	return s.runPass(ctx, post, []string{platform}, obs)
}

// RetryFailed re-runs every currently failed platform, sequentially, with
// the same semantics as the initial pass.
func (s *publisherService) RetryFailed(ctx context.Context, userID int64, postID string, obs PublishObserver) (*models.Post, error) {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	failed := post.FailedPlatforms()
	if len(failed) == 0 {
		return nil, &ValidationError{Field: "post", Reason: "no failed platforms to retry"}
	}

	return s.runPass(ctx, post, failed, obs)
}

func (s *publisherService) ownedPost(ctx context.Context, userID int64, postID string) (*models.Post, error) {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, &ValidationError{Field: "post", Reason: "post doesn't exist"}
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, &ValidationError{Field: "post", Reason: "post doesn't exist"}
	}
	return post, nil
}

// runPass attempts each listed platform strictly in order. One platform's
// failure never aborts the pass; the full list is always walked so the
// result set covers every attempted platform. Platforms already confirmed
// in PlatformPostIDs are skipped, which is what makes retries and re-fired
// schedules idempotent.
func (s *publisherService) runPass(ctx context.Context, post *models.Post, attempt []string, obs PublishObserver) (*models.Post, error) {
	if post.PlatformPostIDs == nil {
		post.PlatformPostIDs = map[string]string{}
	}
	if post.PostResults == nil {
		post.PostResults = map[string]models.PostResult{}
	}

	registry := s.registry.ForUser(post.UserID)
	statuses := make(map[string]models.PlatformStatus, len(attempt))
	observe := func(platform string, status models.PlatformStatus) {
		statuses[platform] = status
		if obs != nil {
			obs(platform, status)
		}
	}

	var succeeded, failed []string
	for _, name := range attempt {
		if _, confirmed := post.PlatformPostIDs[name]; confirmed {
			continue
		}

		// A cancelled context stops further delivery but still records an
		// outcome for every remaining platform, so result counts always
		// match the attempted list.
		if ctx.Err() != nil {
			observe(name, models.PlatformStatus{State: models.PlatformStateError, Error: "operation cancelled"})
			post.PostResults[name] = models.PostResult{
				FailureCode: platforms.CodeUnknown,
				Message:     "operation cancelled",
				AttemptedAt: s.now(),
			}
			failed = append(failed, name)
			continue
		}

		observe(name, models.PlatformStatus{State: models.PlatformStatePosting})

		result, err := s.deliver(ctx, registry, name, post)
		if err != nil {
			code, message := classify(err)
			slog.Info("delivery failed", "platform", name, "post_id", post.ID, "code", code)
			observe(name, models.PlatformStatus{State: models.PlatformStateError, Error: message})
			post.PostResults[name] = models.PostResult{
				FailureCode: code,
				Message:     message,
				AttemptedAt: s.now(),
			}
			failed = append(failed, name)
			continue
		}

		observe(name, models.PlatformStatus{
			State:   models.PlatformStateSuccess,
			Message: fmt.Sprintf("Posted to %s", name),
		})
		post.PlatformPostIDs[name] = result.PlatformPostID
		post.PostResults[name] = models.PostResult{
			Success:        true,
			PlatformPostID: result.PlatformPostID,
			AttemptedAt:    s.now(),
		}
		succeeded = append(succeeded, name)
	}

	post.Status = models.DeriveStatus(post.PostResults)
	if post.Status == models.PostStatusPosted && post.PostedAt == nil {
		t := s.now()
		post.PostedAt = &t
	}

	if err := s.pr.Upsert(ctx, post); err != nil {
		// The in-memory outcome is returned alongside the error: delivery
		// already happened and the caller must treat the stored state as
		// unknown until a later write or the reconciliation sweep lands it.
		return post, fmt.Errorf("saving publish outcome for post %s: %w", post.ID, err)
	}

	if len(succeeded) > 0 {
		s.notifier.Emit(ctx, post.UserID, models.SeveritySuccess,
			fmt.Sprintf("Posted to %d platform(s): %s", len(succeeded), strings.Join(succeeded, ", ")))
	}
	if len(failed) > 0 {
		s.notifier.Emit(ctx, post.UserID, models.SeverityError,
			fmt.Sprintf("Failed on %d platform(s): %s", len(failed), strings.Join(failed, ", ")))
	}

	return post, nil
}

func (s *publisherService) deliver(ctx context.Context, registry *platforms.Registry, name string, post *models.Post) (*platforms.PublishResult, error) {
	publisher, ok := registry.Get(name)
	if !ok {
		return nil, &platforms.DeliveryError{
			Platform: name,
			Code:     platforms.CodeUnknown,
			Message:  fmt.Sprintf("unsupported platform %s", name),
		}
	}
	return publisher.Publish(ctx, post.Content, post.Image)
}

func classify(err error) (code, message string) {
	var de *platforms.DeliveryError
	if errors.As(err, &de) {
		return de.Code, de.Message
	}
	return platforms.CodeUnknown, err.Error()
}
