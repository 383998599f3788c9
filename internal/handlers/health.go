package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/quickserve/quickserve-backend/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	flows   *services.FlowManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, flows *services.FlowManager) *HealthHandler {
	return &HealthHandler{
		Version: version,
		flows:   flows,
	}
}

// Check reports service health along with onboarding flow activity
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":           "OK",
		"service":          "QuickServe Backend",
		"version":          h.Version,
		"storage":          storageMode(),
		"onboarding_flows": h.flows.ActiveFlows(),
	})
}

func storageMode() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "memory"
	}
	return "postgres"
}
