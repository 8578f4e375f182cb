package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const TaskTypePublishPost = "post:publish"

var ErrAlreadyRequested = errors.New("publish already requested for this post")

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

// Enqueuer is the part of *asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewPublishTask(postID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePublishPost, payload), nil
}

// EnqueuePublish requests an immediate publish of a post. A post has at most
// one pending request, and a failed publish is never retried automatically.
func EnqueuePublish(ctx context.Context, client Enqueuer, postID int64) error {
	task, err := NewPublishTask(postID)
	if err != nil {
		return err
	}

	_, err = client.EnqueueContext(ctx, task,
		asynq.TaskID(fmt.Sprintf("publish:%d", postID)),
		asynq.MaxRetry(0),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return ErrAlreadyRequested
		}
		slog.Info(err.Error())
		return err
	}

	slog.Info("publish task enqueued", "post_id", postID)
	return nil
}
