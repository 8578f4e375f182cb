package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postqueue/internal/publisher"
	"github.com/maheshrc27/postqueue/internal/queue"
	"github.com/maheshrc27/postqueue/internal/service"
	"github.com/maheshrc27/postqueue/internal/slots"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return slots.ValidTimeOfDay(fl.Field().String())
	})
	return v
}

func GetUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(id, 10, 64)
	return userID
}

// parseBody decodes and validates a JSON body into dst. It writes the error
// response itself and reports whether the handler should continue.
func parseBody(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		slog.Info(err.Error())
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return true, nil
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

func badID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid id",
	})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrNotFound, fiber.StatusNotFound},
	{service.ErrNoCalendar, fiber.StatusNotFound},
	{service.ErrNotDraft, fiber.StatusConflict},
	{service.ErrNotScheduled, fiber.StatusConflict},
	{service.ErrNotFailed, fiber.StatusConflict},
	{service.ErrAlreadyQueued, fiber.StatusConflict},
	{service.ErrPostPublishing, fiber.StatusConflict},
	{service.ErrConcurrentUpdate, fiber.StatusConflict},
	{service.ErrInvalidTransition, fiber.StatusConflict},
	{service.ErrNoSlotAvailable, fiber.StatusUnprocessableEntity},
	{service.ErrInsufficientEntries, fiber.StatusUnprocessableEntity},
	{service.ErrInvalidCalendar, fiber.StatusUnprocessableEntity},
	{service.ErrInvalidContent, fiber.StatusUnprocessableEntity},
	{service.ErrInvalidMedia, fiber.StatusUnprocessableEntity},
	{service.ErrIncompatibleMediaCombination, fiber.StatusUnprocessableEntity},
	{service.ErrScheduleInPast, fiber.StatusUnprocessableEntity},
	{service.ErrSlotConflict, fiber.StatusConflict},
	{service.ErrInvalidTimezone, fiber.StatusBadRequest},
	{service.ErrInvalidStatus, fiber.StatusBadRequest},
	{service.ErrInvalidState, fiber.StatusBadRequest},
	{service.ErrTooManyKeys, fiber.StatusBadRequest},
	{service.ErrEntitlementInactive, fiber.StatusPaymentRequired},
	{publisher.ErrNotPublishable, fiber.StatusConflict},
	{queue.ErrAlreadyRequested, fiber.StatusConflict},
}

// respondError maps service errors to a status code. Unknown errors are
// logged and hidden behind a generic message.
func respondError(c *fiber.Ctx, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	slog.Error(err.Error(), "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Something went wrong",
	})
}
