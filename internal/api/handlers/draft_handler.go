package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/sambecker/postdeck/internal/service"
	"github.com/sambecker/postdeck/internal/transfer"
)

type DraftHandler struct {
	s service.DraftService
}

func NewDraftHandler(service service.DraftService) *DraftHandler {
	return &DraftHandler{s: service}
}

func (h *DraftHandler) SaveDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)

	platforms, err := parsePlatforms(c.FormValue("platforms"))
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	image, err := readImage(c)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	draft, err := h.s.Save(c.Context(), userID, &transfer.DraftSave{
		ID:        c.FormValue("id"),
		Content:   c.FormValue("content"),
		Platforms: platforms,
		Image:     image,
	})
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(draft)
}

func (h *DraftHandler) ListDrafts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	draftID := c.Query("id")

	if draftID != "" {
		draft, err := h.s.Load(c.Context(), userID, draftID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "Unable to load draft",
			})
		}
		return c.Status(fiber.StatusOK).JSON(draft)
	}

	drafts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list drafts",
		})
	}
	return c.Status(fiber.StatusOK).JSON(drafts)
}

func (h *DraftHandler) RemoveDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)
	draftID := c.Query("id")

	if err := h.s.Remove(c.Context(), userID, draftID); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": "Unable to remove draft",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}
