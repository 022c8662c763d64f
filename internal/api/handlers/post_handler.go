package handlers

import (
	"log/slog"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postloom/internal/queue"
	"github.com/maheshrc27/postloom/internal/service"
	"github.com/maheshrc27/postloom/internal/transfer"
)

type PostHandler struct {
	gs          service.GenerationService
	ps          service.PublishService
	AsynqClient *asynq.Client
}

func NewPostHandler(gs service.GenerationService, ps service.PublishService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{gs: gs, ps: ps, AsynqClient: asynqClient}
}

func (h *PostHandler) GeneratePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	text := c.Query("text")
	length := c.Query("length")
	note := c.Query("note")

	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	result, err := h.gs.Generate(c.Context(), userID, text, length, note)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post_id":        result.PostID,
		"generated_text": result.GeneratedText,
		"message":        "Post generated and stored successfully",
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.gs.List(c.Context(), userID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts": posts,
	})
}

func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := c.ParamsInt("post_id")
	if err != nil || postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post_id is not valid",
		})
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}

	req := transfer.PublishRequest{
		Text:          c.FormValue("text"),
		ScheduledTime: c.FormValue("scheduled_time"),
	}

	if req.ScheduledTime != "" {
		delay, err := h.ps.Schedule(c.Context(), userID, int64(postID), req.ScheduledTime, files)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		err = queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{
			PostID: int64(postID),
			UserID: userID,
			Text:   req.Text,
		}, delay)
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error scheduling post",
			})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Post scheduled successfully",
		})
	}

	result, err := h.ps.Publish(c.Context(), userID, int64(postID), req.Text, files)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
