package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

type PostPublisher interface {
	PublishNow(ctx context.Context, postID int64) error
}

type Worker struct {
	pub PostPublisher
}

func NewWorker(pub PostPublisher) *Worker {
	return &Worker{pub: pub}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypePublishPost, w.HandlePublishPostTask)
}

func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding payload: %v: %w", err, asynq.SkipRetry)
	}

	// A failed publish still completes the task, which frees its ID so the
	// post can be requested again.
	if err := w.pub.PublishNow(ctx, payload.PostID); err != nil {
		slog.Info("manual publish failed", "post_id", payload.PostID, "error", err)
	}
	return nil
}
