package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postloom/internal/service"
	"github.com/maheshrc27/postloom/pkg/httpretry"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// statusForError maps the service error taxonomy onto HTTP statuses. Anything
// unrecognized is an internal fault.
func statusForError(err error) int {
	var netErr *httpretry.NetworkError
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fiber.StatusGatewayTimeout
		}
		return fiber.StatusServiceUnavailable
	}

	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		return fiber.StatusNotFound
	}

	var validation *service.ValidationError
	if errors.As(err, &validation) {
		return fiber.StatusBadRequest
	}

	var genErr *service.GenerationError
	if errors.As(err, &genErr) {
		if genErr.Kind == service.GenerationCallerError {
			return fiber.StatusBadRequest
		}
		return fiber.StatusBadGateway
	}

	var uploadErr *service.MediaUploadError
	if errors.As(err, &uploadErr) {
		// A transport-level upload failure is the platform being unreachable,
		// not a caller mistake.
		var inner *httpretry.NetworkError
		if errors.As(uploadErr.Cause, &inner) {
			if inner.Timeout() {
				return fiber.StatusGatewayTimeout
			}
			return fiber.StatusServiceUnavailable
		}
		return fiber.StatusBadRequest
	}

	var rejected *service.PublishRejected
	if errors.As(err, &rejected) {
		return fiber.StatusBadRequest
	}

	var exchangeErr *service.TokenExchangeError
	var profileErr *service.ProfileFetchError
	if errors.As(err, &exchangeErr) || errors.As(err, &profileErr) {
		return fiber.StatusBadRequest
	}

	return fiber.StatusInternalServerError
}
