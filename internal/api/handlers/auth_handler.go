package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postloom/configs"
	"github.com/maheshrc27/postloom/internal/service"
	"github.com/maheshrc27/postloom/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const stateCookieName = "oauth_state"

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state, err := gonanoid.New()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     stateCookieName,
		Value:    state,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
	})

	return c.Redirect(h.s.AuthURL(state))
}

func (h *AuthHandler) LoginCallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if state == "" || state != c.Cookies(stateCookieName) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "state mismatch",
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	identity, userID, err := h.s.LoginCallback(c.Context(), code)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// userID is zero when the identity store was unavailable; the login still
	// succeeds without a session cookie.
	if userID != 0 {
		token, err := utils.GenerateToken(h.cfg.SecretKey, fmt.Sprintf("%d", userID), 24*time.Hour)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong",
			})
		}

		c.Cookie(&fiber.Cookie{
			Name:     h.cfg.CookieName,
			Value:    token,
			HTTPOnly: true,
			Secure:   false,
			SameSite: fiber.CookieSameSiteNoneMode,
			Path:     "/",
			Expires:  time.Now().Add(24 * time.Hour),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":     "LinkedIn login successful",
		"linkedin_id": identity.LinkedinID,
		"name":        identity.Name,
		"email":       identity.Email,
	})
}
