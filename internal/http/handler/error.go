package handler

import (
	"github.com/gofiber/fiber/v2"
)

// respondError writes the API error envelope consumed by the browser client:
// {"success":false,"message":...}. Messages must be safe to show to users.
func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// ErrorHandler returns a Fiber global error handler that maps unhandled and
// routing errors onto the same envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return respondError(c, status, "bad request")
		case fiber.StatusNotFound:
			return respondError(c, status, "resource not found")
		case fiber.StatusMethodNotAllowed:
			return respondError(c, status, "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			// fasthttp body-limit rejection; the upload contract promises a
			// 400 envelope for oversized files.
			return respondError(c, fiber.StatusBadRequest, "File exceeds the 10 MiB size limit")
		default:
			return respondError(c, status, "internal server error")
		}
	}
}
