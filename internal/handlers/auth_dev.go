package handlers

import (
	"memopilot/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// DevTokenHandler mints identity tokens for local development. Only wired
// when IS_DEV=true; production credentials come from the external identity
// provider.
type DevTokenHandler struct {
	verifier *auth.JWTVerifier
}

// NewDevTokenHandler creates a new dev token handler
func NewDevTokenHandler(verifier *auth.JWTVerifier) *DevTokenHandler {
	return &DevTokenHandler{verifier: verifier}
}

type devTokenRequest struct {
	UserID string `json:"user_id"`
}

// Mint issues a signed token for the requested user
// POST /auth/dev-token
func (h *DevTokenHandler) Mint(c *fiber.Ctx) error {
	var req devTokenRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	token, err := h.verifier.GenerateToken(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}
