package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/queue"
	"github.com/sambecker/postdeck/internal/service"
	"github.com/sambecker/postdeck/internal/transfer"
)

type PostHandler struct {
	publisher   service.PublisherService
	scheduler   service.SchedulerService
	drafts      service.DraftService
	assets      *service.AssetService
	AsynqClient *asynq.Client
}

func NewPostHandler(
	publisher service.PublisherService,
	scheduler service.SchedulerService,
	drafts service.DraftService,
	assets *service.AssetService,
	asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{
		publisher:   publisher,
		scheduler:   scheduler,
		drafts:      drafts,
		assets:      assets,
		AsynqClient: asynqClient,
	}
}

func statusForError(err error) int {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// PublishNow runs a full publish pass and reports the per-platform
// breakdown. The pass runs on a context detached from the request so a
// client that navigates away mid-batch never truncates delivery.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	userID := GetUserID(c)

	sub, err := h.readSubmission(c)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	post, err := h.publisher.PublishNow(context.Background(), userID, sub, nil)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.cleanUpDraft(c, userID, sub.DraftID, sub.DeleteDraft)

	return c.Status(fiber.StatusOK).JSON(transfer.PublishReport{
		PostID:    post.ID,
		Status:    post.Status,
		Succeeded: post.SucceededPlatforms(),
		Failed:    post.FailedPlatforms(),
	})
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	sub, err := h.readSubmission(c)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	req := &transfer.ScheduleRequest{
		Content:       sub.Content,
		Platforms:     sub.Platforms,
		Image:         sub.Image,
		ScheduledTime: c.FormValue("scheduled_time"),
	}

	post, delay, err := h.scheduler.Schedule(c.Context(), userID, req)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	err = queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, delay)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"error": "Error scheduling post",
		})
	}

	h.cleanUpDraft(c, userID, sub.DraftID, sub.DeleteDraft)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post scheduled successfully",
		"post_id": post.ID,
	})
}

// RetryPost re-attempts one failed platform (?platform=) or every failed
// platform when none is named.
func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Params("id")
	platform := c.Query("platform")

	ctx := context.Background()

	var post *models.Post
	var err error
	if platform != "" {
		post, err = h.publisher.RetryPlatform(ctx, userID, postID, platform, nil)
	} else {
		post, err = h.publisher.RetryFailed(ctx, userID, postID, nil)
	}
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PublishReport{
		PostID:    post.ID,
		Status:    post.Status,
		Succeeded: post.SucceededPlatforms(),
		Failed:    post.FailedPlatforms(),
	})
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if err := h.scheduler.Cancel(c.Context(), userID, postID); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) RemovePending(c *fiber.Ctx) error {
	userID := GetUserID(c)

	removed, err := h.scheduler.CancelAllPending(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to cancel pending posts",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"removed": removed})
}

func (h *PostHandler) readSubmission(c *fiber.Ctx) (*transfer.PostSubmission, error) {
	platforms, err := parsePlatforms(c.FormValue("platforms"))
	if err != nil {
		return nil, err
	}

	image, err := readImage(c)
	if err != nil {
		return nil, err
	}
	if image != nil {
		if _, err := h.assets.ArchiveImage(c.Context(), GetUserID(c), image); err != nil {
			// Archival is best effort; the post still carries the payload.
			slog.Info(err.Error())
		}
	}

	return &transfer.PostSubmission{
		Content:     c.FormValue("content"),
		Platforms:   platforms,
		Image:       image,
		DraftID:     c.FormValue("draft_id"),
		DeleteDraft: c.FormValue("delete_draft") == "true",
	}, nil
}

func (h *PostHandler) cleanUpDraft(c *fiber.Ctx, userID int64, draftID string, remove bool) {
	if draftID == "" || !remove {
		return
	}
	if err := h.drafts.Remove(c.Context(), userID, draftID); err != nil {
		slog.Info(err.Error())
	}
}
