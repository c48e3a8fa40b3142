package handler

import "github.com/gofiber/fiber/v3"

// Health serves GET /healthz.
func Health() fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.SendString("ok")
	}
}
