package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/queue"
	"github.com/maheshrc27/postqueue/internal/service"
	"github.com/maheshrc27/postqueue/internal/transfer"
)

const maxPendingHours = 24 * 7

type PostHandler struct {
	s     service.PostService
	tasks queue.Enqueuer
}

func NewPostHandler(service service.PostService, tasks queue.Enqueuer) *PostHandler {
	return &PostHandler{s: service, tasks: tasks}
}

func (h *PostHandler) CreateDraft(c *fiber.Ctx) error {
	var req transfer.DraftRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	post, err := h.s.CreateDraft(c.Context(), GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) UpdateDraft(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	var req struct {
		Content string `json:"content" validate:"required,max=3000"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	post, err := h.s.UpdateDraft(c.Context(), GetUserID(c), postID, req.Content)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) AttachMedia(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	form, err := c.MultipartForm()
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	assets, err := h.s.AttachMedia(c.Context(), GetUserID(c), postID, form.File["files"])
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(assets)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), GetUserID(c), models.PostStatus(c.Query("status")))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	post, err := h.s.Get(c.Context(), GetUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) PostLogs(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	logs, err := h.s.Logs(c.Context(), GetUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(logs)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	var req transfer.ScheduleRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	entry, err := h.s.ScheduleAt(c.Context(), GetUserID(c), postID, req.ScheduledTime)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// PublishNow validates the post and hands it to the background worker.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	post, err := h.s.PrepareNow(c.Context(), GetUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}

	if err := queue.EnqueuePublish(c.Context(), h.tasks, post.ID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Post is being published",
	})
}

func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	draft, err := h.s.Retry(c.Context(), GetUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(draft)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.s.Remove(c.Context(), GetUserID(c), postID); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) PendingPosts(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours <= 0 || hours > maxPendingHours {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "hours must be between 1 and 168",
		})
	}

	pending, err := h.s.Pending(c.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(pending)
}
