package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postloom/internal/service"
)

// HandlePublishPostTask runs a scheduled publish when its delay elapses. The
// publish itself is never repeated on an ambiguous outcome, so a soft platform
// rejection does not fail the task.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := q.ps.PublishArchived(ctx, payload.UserID, payload.PostID, payload.Text)
	if err != nil {
		// A terminal platform rejection will not succeed on a redelivery.
		var rejected *service.PublishRejected
		if errors.As(err, &rejected) {
			log.Printf("Scheduled post %d rejected by platform: %s", payload.PostID, rejected.Detail)
			return nil
		}
		log.Printf("Error publishing scheduled post %d: %v", payload.PostID, err)
		return err
	}

	log.Printf("Scheduled post %d published as %s", payload.PostID, result.PostID)
	return nil
}
