package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pdf-service/internal/infra/chrome"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleHealth reports that the HTTP server is up. It never touches the engine.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(healthResponse{Status: "OK", Message: "Server is running"})
}

// EngineStatser exposes the engine handle's state.
type EngineStatser interface {
	Stats() chrome.Stats
}

// HandleEngineStats returns a handler exposing the engine's launch and page counters.
func HandleEngineStats(e EngineStatser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(e.Stats())
	}
}
