package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postqueue/internal/service"
)

type QueueHandler struct {
	s service.QueueService
}

func NewQueueHandler(service service.QueueService) *QueueHandler {
	return &QueueHandler{s: service}
}

func (h *QueueHandler) Enqueue(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	entry, err := h.s.Enqueue(c.Context(), GetUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *QueueHandler) Unschedule(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.s.Unschedule(c.Context(), GetUserID(c), postID); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *QueueHandler) ListQueue(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	items, err := h.s.List(c.Context(), GetUserID(c), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(items)
}

func (h *QueueHandler) Shuffle(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	entries, err := h.s.Shuffle(c.Context(), GetUserID(c), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(entries)
}

func (h *QueueHandler) NextSlot(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	at, err := h.s.NextSlot(c.Context(), GetUserID(c), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"scheduled_for": at,
	})
}
