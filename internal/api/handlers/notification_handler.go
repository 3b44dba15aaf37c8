package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/internal/api/presenters"
)

type (
	NotificationHandler interface {
		CheckNow(c *fiber.Ctx) error
	}

	// PassRunner runs one notification pass on demand.
	PassRunner interface {
		RunOnce(ctx context.Context) (domain.PassReport, error)
	}

	notificationHandler struct {
		runner PassRunner
	}
)

func NewNotificationHandler(runner PassRunner) NotificationHandler {
	return &notificationHandler{runner: runner}
}

func (h *notificationHandler) CheckNow(c *fiber.Ctx) error {
	res, err := h.runner.RunOnce(c.Context())
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCheckNotifications, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessCheckNotifications)
}
