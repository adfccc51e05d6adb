package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/MuthonduG/moti-monolythic/internal/models"
	"github.com/MuthonduG/moti-monolythic/internal/services"
)

const userContextKey = "currentUser"

// Authenticate resolves a bearer token to a live account and loads it into
// the request context. A missing Authorization header is not an error here:
// the request proceeds anonymously and each endpoint decides whether that
// is acceptable.
func Authenticate(accounts *services.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		user, err := accounts.Authenticate(authHeader)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, authErrorMessage(err))
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// RequireAuth rejects requests that did not authenticate.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// RequireRole rejects authenticated requests whose account holds none of
// the given roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}

		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
}

// CurrentUser extracts the authenticated account from context.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return nil, false
	}

	if user, ok := value.(*models.User); ok {
		return user, true
	}

	return nil, false
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidScheme):
		return "invalid authorization header, use a bearer token"
	case errors.Is(err, services.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, services.ErrMissingExpiry):
		return "token has no expiration"
	case errors.Is(err, services.ErrUnknownSubject):
		return "user not found"
	default:
		return "invalid token"
	}
}
