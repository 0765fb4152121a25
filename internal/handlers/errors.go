package handlers

import (
	"errors"

	"memopilot/internal/services"

	"github.com/gofiber/fiber/v2"
)

// upstreamErrorResponse translates a memory service failure for the client.
// Development mode passes the upstream status and body through; production
// collapses to generic categories so no internal detail leaks.
func upstreamErrorResponse(c *fiber.Ctx, err error, isDev bool) error {
	var upstream *services.UpstreamError
	if errors.As(err, &upstream) {
		if isDev {
			return c.Status(upstream.StatusCode).JSON(fiber.Map{
				"detail": upstream.Body,
			})
		}

		detail := "Request error"
		switch upstream.StatusCode {
		case fiber.StatusBadRequest:
			detail = "Bad request"
		case fiber.StatusForbidden:
			detail = "Not allowed"
		}
		return c.Status(upstream.StatusCode).JSON(fiber.Map{
			"detail": detail,
		})
	}

	if isDev {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"detail": "Internal server error",
	})
}
