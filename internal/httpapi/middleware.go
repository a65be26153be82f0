package httpapi

import (
	"ColorPredict/internal/core/ports"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const localsAdminSubject = "admin_subject"

// adminAuth checks the bearer token on admin routes.
func adminAuth(tokens ports.TokenPort, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fail(c, fiber.StatusUnauthorized, "missing authorization header")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return fail(c, fiber.StatusUnauthorized, "invalid authorization format")
		}

		subject, err := tokens.VerifyAdminToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Warn().Err(err).Str("ip", c.IP()).Msg("Rejected admin token")
			return fail(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(localsAdminSubject, subject)
		return c.Next()
	}
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Render handler errors here so the logged status is the one sent.
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error().Err(chainErr)
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Msg("HTTP request")
		return nil
	}
}
