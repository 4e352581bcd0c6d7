package medicaodigitalx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// handleError is the fiber.ErrorHandler for errors no handler answered
// itself.
func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", ctx.Path()).Error("request failed")
	}
	description := err.Error()
	if code >= fiber.StatusInternalServerError && e == nil {
		description = "internal server error"
	}
	return ctx.Status(code).JSON(
		fiber.Map{
			"error":             errorCode(code),
			"error_description": description,
		},
	)
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusBadRequest:
		return "invalid_request"
	}
	if status >= fiber.StatusInternalServerError {
		return "server_error"
	}
	return "invalid_request"
}
