package handlers

import (
	"context"
	"crypto/subtle"
	"log"
	"time"

	"memopilot/internal/logging"
	"memopilot/internal/models"
	"memopilot/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WebhookHandler translates memory service change notifications into cache
// invalidation
type WebhookHandler struct {
	memory  *services.MemoryCacheService
	secret  string
	metrics *services.Metrics
}

// NewWebhookHandler creates a new webhook handler. An empty secret accepts
// unauthenticated deliveries; main logs that posture at startup.
func NewWebhookHandler(memory *services.MemoryCacheService, secret string, metrics *services.Metrics) *WebhookHandler {
	return &WebhookHandler{
		memory:  memory,
		secret:  secret,
		metrics: metrics,
	}
}

// Handle processes a change notification from the memory service
// POST /memory/webhook?secret=...
//
// The 403 is returned before any event processing so callers cannot probe
// whether a secret is configured. Processing is replay-idempotent: clearing
// an already-clear cache is a no-op.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	if h.secret != "" {
		provided := c.Query("secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			h.metrics.WebhookEvent("forbidden")
			log.Println("❌ [WEBHOOK] Rejected delivery: bad or missing secret")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"detail": "Forbidden",
			})
		}
	}

	eventID := uuid.NewString()
	logger := logging.WithWebhookEvent(eventID)

	var event models.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		// Unparseable payload: attribution is unknown, fall through to the
		// defensive full flush below.
		logger.Warn("unparseable webhook payload", "error", err)
	}

	if userID := event.AffectedUser(); userID != "" {
		h.memory.ResetCache(userID)
		h.metrics.WebhookEvent("user_invalidation")
		logger.Info("invalidated cache for affected user", "user_id", userID)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			h.memory.Warmup(ctx, userID)
		}()
	} else {
		// Correctness over efficiency when attribution is unknown
		h.memory.ResetCache("")
		h.metrics.WebhookEvent("full_flush")
		logger.Info("no affected user in payload, flushed all caches")
	}

	return c.JSON(fiber.Map{
		"status": "success",
	})
}
