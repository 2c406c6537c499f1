package handlers

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// HandleHealth pings the store.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	if err := h.store.Ping(c.UserContext()); err != nil {
		zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleVersion reports the module version and VCS revision of the binary.
func (h *Handler) HandleVersion(c *fiber.Ctx) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "no build information available")
	}

	body := fiber.Map{"go": info.GoVersion, "version": info.Main.Version}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			body["revision"] = s.Value
		case "vcs.time":
			body["built"] = s.Value
		}
	}
	return c.JSON(body)
}
