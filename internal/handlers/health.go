package handlers

import (
	"time"

	"memopilot/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports process liveness and cache occupancy
type HealthHandler struct {
	memory    *services.MemoryCacheService
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(memory *services.MemoryCacheService) *HealthHandler {
	return &HealthHandler{
		memory:    memory,
		startTime: time.Now(),
	}
}

// Handle returns the health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"cache":          h.memory.Stats(),
		"timestamp":      time.Now().Unix(),
	})
}
