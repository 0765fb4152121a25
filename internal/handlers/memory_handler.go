package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"memopilot/internal/logging"
	"memopilot/internal/models"
	"memopilot/internal/services"

	"github.com/gofiber/fiber/v2"
)

// MemoryHandler handles memory-related API endpoints
type MemoryHandler struct {
	memory *services.MemoryCacheService
	isDev  bool
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memory *services.MemoryCacheService, isDev bool) *MemoryHandler {
	return &MemoryHandler{
		memory: memory,
		isDev:  isDev,
	}
}

// ListMemories returns a paginated listing of the caller's memories
// GET /memory/all?page=1&page_size=100
func (h *MemoryHandler) ListMemories(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "100"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filters := map[string]any{"user_id": userID}
	options := map[string]any{"page": page, "page_size": pageSize}

	result, err := h.memory.GetAll(ctx, filters, options)
	if err != nil {
		log.Printf("❌ [MEMORY-API] Failed to list memories: %v", err)
		return upstreamErrorResponse(c, err, h.isDev)
	}

	// Strip the owning user ID from each record before it leaves the API
	memories := models.RecordResults(result)
	sanitized := make([]fiber.Map, 0, len(memories))
	for _, mem := range memories {
		record := fiber.Map{}
		for k, v := range mem {
			if k == "user_id" {
				continue
			}
			record[k] = v
		}
		sanitized = append(sanitized, record)
	}

	return c.JSON(fiber.Map{
		"count":     result["count"],
		"page":      page,
		"page_size": pageSize,
		"results":   sanitized,
	})
}

// DeleteMemory deletes one memory after checking the caller owns it
// DELETE /memory/:id
func (h *MemoryHandler) DeleteMemory(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	memoryID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mem, err := h.memory.Get(ctx, memoryID, nil)
	if err != nil {
		log.Printf("❌ [MEMORY-API] Failed to fetch memory %s: %v", memoryID, err)
		return upstreamErrorResponse(c, err, h.isDev)
	}

	if models.RecordID(mem) == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Memory not found",
		})
	}

	if models.RecordOwner(mem) != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"detail": "Not allowed",
		})
	}

	result, err := h.memory.Delete(ctx, memoryID, nil)
	if err != nil {
		log.Printf("❌ [MEMORY-API] Failed to delete memory %s: %v", memoryID, err)
		return upstreamErrorResponse(c, err, h.isDev)
	}

	return c.JSON(result)
}

// Warmup schedules a background cache warmup for the caller
// POST /memory/warmup
func (h *MemoryHandler) Warmup(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.memory.Warmup(ctx, userID)
		logging.WithUser(userID).Debug("warmup completed")
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "scheduled",
	})
}
