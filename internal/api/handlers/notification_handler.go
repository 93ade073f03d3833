package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sambecker/postdeck/internal/notify"
)

type NotificationHandler struct {
	toaster *notify.Toaster
	center  *notify.Center
}

func NewNotificationHandler(toaster *notify.Toaster, center *notify.Center) *NotificationHandler {
	return &NotificationHandler{toaster: toaster, center: center}
}

// ListToasts returns the still-visible transient notifications.
func (h *NotificationHandler) ListToasts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	return c.Status(fiber.StatusOK).JSON(h.toaster.Active(userID))
}

// ListNotifications returns the user's retained notification-center log.
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID := GetUserID(c)

	notifications, err := h.center.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list notifications",
		})
	}
	return c.Status(fiber.StatusOK).JSON(notifications)
}

func (h *NotificationHandler) DismissNotification(c *fiber.Ctx) error {
	userID := GetUserID(c)
	notificationID := c.Query("id")

	if err := h.center.Dismiss(c.Context(), userID, notificationID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to dismiss notification",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}
