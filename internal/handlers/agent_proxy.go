package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
)

// AgentProxyHandler forwards agent-runtime calls to the sibling process
type AgentProxyHandler struct {
	agentBase string
}

// NewAgentProxyHandler creates a proxy to the local agent runtime port
func NewAgentProxyHandler(agentPort string) *AgentProxyHandler {
	return &AgentProxyHandler{
		agentBase: fmt.Sprintf("http://127.0.0.1:%s", agentPort),
	}
}

// Proxy forwards the request as-is, path and body included
func (h *AgentProxyHandler) Proxy(c *fiber.Ctx) error {
	target := h.agentBase + c.OriginalURL()
	if err := proxy.Do(c, target); err != nil {
		log.Printf("❌ [AGENT-PROXY] Forwarding to %s failed: %v", target, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Agent runtime unavailable",
		})
	}
	// Let the upstream response pass through untouched
	return nil
}
