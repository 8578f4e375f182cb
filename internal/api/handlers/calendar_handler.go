package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postqueue/internal/service"
	"github.com/maheshrc27/postqueue/internal/transfer"
)

type CalendarHandler struct {
	s service.CalendarService
}

func NewCalendarHandler(service service.CalendarService) *CalendarHandler {
	return &CalendarHandler{s: service}
}

func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	cal, err := h.s.Get(c.Context(), GetUserID(c), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(cal)
}

func (h *CalendarHandler) UpdateCalendar(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	var req transfer.CalendarUpdate
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	cal, err := h.s.Update(c.Context(), GetUserID(c), accountID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(cal)
}
