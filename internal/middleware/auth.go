package middleware

import (
	"log"

	"memopilot/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// Auth verifies bearer tokens and stores the caller's user ID in locals.
func Auth(verifier auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifier == nil {
			// CRITICAL: never allow auth bypass outside development
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Authentication service unavailable",
			})
		}

		token, err := auth.ExtractToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization token",
			})
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			log.Printf("❌ Auth failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// DevAuth authenticates every request as a fixed development user.
// Only wired when IS_DEV=true and no JWT secret is configured.
func DevAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log.Println("⚠️  Auth skipped: JWT not configured (development mode)")
		c.Locals("user_id", "dev-user")
		return c.Next()
	}
}
