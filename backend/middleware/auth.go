package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/utils"
)

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}
