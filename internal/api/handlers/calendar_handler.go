package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sambecker/postdeck/internal/service"
)

type CalendarHandler struct {
	s  service.CalendarService
	ps service.PostService
}

func NewCalendarHandler(calendar service.CalendarService, posts service.PostService) *CalendarHandler {
	return &CalendarHandler{s: calendar, ps: posts}
}

// GetCalendar returns the month grid for the requested (or current)
// month.
func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	userID := GetUserID(c)

	now := time.Now()
	year := c.QueryInt("year", now.Year())
	month := c.QueryInt("month", int(now.Month()))
	if month < 1 || month > 12 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "month must be between 1 and 12",
		})
	}

	grid, err := h.s.MonthGrid(c.Context(), userID, year, time.Month(month))
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(grid)
}

func (h *CalendarHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if postID != "" {
		post, err := h.ps.PostInfo(c.Context(), postID, userID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "Unable to load post",
			})
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.ps.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}
