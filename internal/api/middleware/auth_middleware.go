package middleware

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postloom/configs"
	"github.com/maheshrc27/postloom/internal/repository"
	"github.com/maheshrc27/postloom/pkg/utils"
)

type AuthMiddleware struct {
	u   repository.UserRepository
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config, u repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{u: u, cfg: cfg}
}

// AuthMiddleware resolves the acting user from the session cookie, or from a
// user_id query parameter carrying the LinkedIn member id. The resolved
// internal id goes into c.Locals("user_id").
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		linkedinID := c.Query("user_id")

		if tokenString == "" && linkedinID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing session or user_id",
			})
		}

		if tokenString != "" {
			claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
			if err != nil {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1, // Delete cookie
				})

				log.Printf("Token validation failed: %v", err)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}

			c.Locals("user_id", claims.UserID)
			return c.Next()
		}

		user, isExist, err := m.u.GetByLinkedinID(c.Context(), linkedinID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to resolve user",
			})
		}
		if !isExist {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals("user_id", fmt.Sprintf("%d", user.ID))
		return c.Next()
	}
}
