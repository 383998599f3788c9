package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickserve/quickserve-backend/internal/auth"
	"github.com/quickserve/quickserve-backend/internal/services"
)

// AccountHandler serves the authenticated account surface
type AccountHandler struct {
	directory *services.UserDirectory
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(directory *services.UserDirectory) *AccountHandler {
	return &AccountHandler{directory: directory}
}

// Me returns the account the presented token belongs to
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	accountID, _ := c.Locals(auth.AccountIDKey).(string)

	account, err := h.directory.GetByID(accountID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Account not found",
		})
	}

	return c.JSON(fiber.Map{
		"account":  account,
		"services": account.ServiceList(),
	})
}

// Logout clears the current session pointer
func (h *AccountHandler) Logout(c *fiber.Ctx) error {
	if err := h.directory.ClearCurrentSession(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log out",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}
