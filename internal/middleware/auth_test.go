package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"memopilot/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

func TestAuthMiddlewarePropagatesUserID(t *testing.T) {
	verifier, err := auth.NewJWTVerifier("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}

	app := fiber.New()
	app.Get("/whoami", Auth(verifier), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})

	token, err := verifier.GenerateToken("u1")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	verifier, _ := auth.NewJWTVerifier("test-secret", time.Hour)

	app := fiber.New()
	app.Get("/whoami", Auth(verifier), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	verifier, _ := auth.NewJWTVerifier("test-secret", time.Hour)

	app := fiber.New()
	app.Get("/whoami", Auth(verifier), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}
